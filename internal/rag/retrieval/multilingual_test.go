package retrieval

import (
	"testing"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want commonModels.Language
	}{
		{"What is broken access control?", commonModels.LanguageEnglish},
		{"มาตรฐานความปลอดภัยเว็บไซต์ของไทยมีอะไรบ้าง", commonModels.LanguageThai},
		{"TLS ตามมาตรฐานภาครัฐ", commonModels.LanguageThai},
		{"???", commonModels.LanguageEnglish},
		{"", commonModels.LanguageEnglish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.text), tt.text)
	}
}

func TestExpandQuery_English(t *testing.T) {
	q := "What website security controls are required?"
	got := ExpandQuery(q, commonModels.LanguageEnglish)

	assert.Equal(t, []string{
		q,
		q + " ความปลอดภัยเว็บไซต์ มาตรการความปลอดภัย มาตรการ",
		"ความปลอดภัยเว็บไซต์ มาตรการความปลอดภัย มาตรการ",
	}, got)
}

func TestExpandQuery_NoTerms(t *testing.T) {
	got := ExpandQuery("How does MITRE describe Persistence?", commonModels.LanguageEnglish)
	assert.Len(t, got, 1)
}

func TestExpandQuery_Thai(t *testing.T) {
	q := "การควบคุมการเข้าถึงของภาครัฐ"
	got := ExpandQuery(q, commonModels.LanguageThai)
	assert.Equal(t, []string{q, q + " government access control"}, got)
}

func TestExpandQuery_ThaiInverseKeepsLastEnglish(t *testing.T) {
	got := ExpandQuery("การตรวจสอบ", commonModels.LanguageThai)
	assert.Equal(t, "การตรวจสอบ audit", got[1])
}

func TestSearchDepth(t *testing.T) {
	assert.Equal(t, 3, SearchDepth(3, commonModels.LanguageEnglish, "owasp injection", 15))
	assert.Equal(t, 8, SearchDepth(3, commonModels.LanguageEnglish, "Thailand web standard", 15))
	assert.Equal(t, 8, SearchDepth(3, commonModels.LanguageThai, "มาตรการ", 15))
	assert.Equal(t, 15, SearchDepth(12, commonModels.LanguageThai, "มาตรการ", 15))
}

func scored(text string, score float32) commonModels.ScoredChunk {
	return commonModels.ScoredChunk{Chunk: commonModels.DocChunk{Chunk: text}, Score: score}
}

func TestFilterIrrelevantPages(t *testing.T) {
	in := []commonModels.ScoredChunk{
		scored("Table of Contents 1 Introduction", 0.9),
		scored("Access control enforces policy", 0.8),
		scored("บรรณานุกรม", 0.7),
	}
	got := FilterIrrelevantPages(in)
	assert.Len(t, got, 1)
	assert.Equal(t, "Access control enforces policy", got[0].Chunk.Chunk)

	onlyBad := []commonModels.ScoredChunk{scored("References", 0.5)}
	assert.Equal(t, onlyBad, FilterIrrelevantPages(onlyBad))
}

func TestDeduplicate_KeepsBestScore(t *testing.T) {
	long := "A01 Broken Access Control moves up from the fifth position; 94% of applications were tested for some form of broken access control"
	in := []commonModels.ScoredChunk{
		scored(long+" variant one", 0.4),
		scored("Injection", 0.6),
		scored(long+" variant two", 0.9),
	}
	got := Deduplicate(in)
	assert.Len(t, got, 2)
	assert.Equal(t, float32(0.9), got[0].Score)
	assert.Equal(t, "Injection", got[1].Chunk.Chunk)
}
