package retrieval

import (
	"slices"
	"strings"
	"unicode"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
)

type termPair struct {
	english string
	thai    string
}

// securityTerms is ordered; expansions append translations in this order.
var securityTerms = []termPair{
	{"web security", "ความปลอดภัยเว็บไซต์"},
	{"website security", "ความปลอดภัยเว็บไซต์"},
	{"security standard", "มาตรฐานความปลอดภัย"},
	{"security controls", "มาตรการความปลอดภัย"},
	{"controls", "มาตรการ"},
	{"government", "ภาครัฐ"},
	{"requirements", "ข้อกำหนด"},

	{"access control", "การควบคุมการเข้าถึง"},
	{"authentication", "การยืนยันตัวตน"},
	{"encryption", "การเข้ารหัส"},
	{"monitoring", "การตรวจสอบ"},
	{"incident response", "การตอบสนองเหตุการณ์"},
	{"risk management", "การจัดการความเสี่ยง"},
	{"logging", "การบันทึก"},
	{"audit", "การตรวจสอบ"},

	{"vulnerability", "ช่องโหว่"},
	{"injection", "การแทรก"},
	{"broken access", "การควบคุมการเข้าถึงที่เสียหาย"},
}

// thaiToEnglish keeps the first position of each Thai term and the last English term mapped to it.
var thaiToEnglish = func() []termPair {
	var out []termPair
	index := map[string]int{}
	for _, p := range securityTerms {
		if i, ok := index[p.thai]; ok {
			out[i].english = p.english
			continue
		}
		index[p.thai] = len(out)
		out = append(out, p)
	}
	return out
}()

var thaiIndicators = []string{"thailand", "thai", "ไทย", "ภาครัฐ", "มาตรฐาน", "พ.ศ.", "ncsa", "government"}

var irrelevantPageMarkers = []string{"บรรณานุกรม", "bibliography", "references", "สารบัญ", "table of contents", "อ้างอิง"}

// DetectLanguage reports Thai when Thai code points make up more than 30% of the letters and digits.
func DetectLanguage(text string) commonModels.Language {
	thai, total := 0, 0
	for _, r := range text {
		if r >= 0x0E00 && r <= 0x0E7F {
			thai++
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			total++
		}
	}
	if total == 0 {
		return commonModels.LanguageEnglish
	}
	if float64(thai)/float64(total) > config.ThaiRatioCutoff {
		return commonModels.LanguageThai
	}
	return commonModels.LanguageEnglish
}

// IsThaiRelated reports whether an English query is probably about Thai material.
func IsThaiRelated(query string) bool {
	q := strings.ToLower(query)
	for _, ind := range thaiIndicators {
		if strings.Contains(q, ind) {
			return true
		}
	}
	return false
}

// ExpandQuery returns the query followed by its bilingual expansions, without duplicates.
// English queries get an expanded query and a Thai-only query; Thai queries get an expanded query.
func ExpandQuery(query string, lang commonModels.Language) []string {
	queries := []string{query}
	lower := strings.ToLower(query)

	switch lang {
	case commonModels.LanguageThai:
		expanded := query
		for _, p := range thaiToEnglish {
			if strings.Contains(query, p.thai) {
				expanded += " " + p.english
			}
		}
		queries = appendDistinct(queries, expanded)

	default:
		expanded := query
		var thaiOnly []string
		for _, p := range securityTerms {
			if strings.Contains(lower, p.english) {
				expanded += " " + p.thai
				thaiOnly = append(thaiOnly, p.thai)
			}
		}
		queries = appendDistinct(queries, expanded)
		if len(thaiOnly) > 0 {
			queries = appendDistinct(queries, strings.Join(thaiOnly, " "))
		}
	}
	return queries
}

func appendDistinct(queries []string, q string) []string {
	q = strings.TrimSpace(q)
	if q == "" || slices.ContainsFunc(queries, func(e string) bool { return strings.TrimSpace(e) == q }) {
		return queries
	}
	return append(queries, q)
}

// SearchDepth widens the search for Thai or Thai-related queries, capped at maxK.
func SearchDepth(k int, lang commonModels.Language, query string, maxK int) int {
	if lang == commonModels.LanguageThai || IsThaiRelated(query) {
		return min(k+config.AdaptiveKIncrease, maxK)
	}
	return k
}

// FilterIrrelevantPages drops bibliography and table-of-contents chunks unless that would drop everything.
func FilterIrrelevantPages(results []commonModels.ScoredChunk) []commonModels.ScoredChunk {
	filtered := make([]commonModels.ScoredChunk, 0, len(results))
	for _, r := range results {
		if !isIrrelevant(r.Chunk.Chunk) {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return results
	}
	return filtered
}

func isIrrelevant(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range irrelevantPageMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Deduplicate keeps the best scoring chunk per fingerprint, the first FingerprintRunes runes of its text.
// Order of first appearance is preserved.
func Deduplicate(results []commonModels.ScoredChunk) []commonModels.ScoredChunk {
	index := make(map[string]int, len(results))
	out := make([]commonModels.ScoredChunk, 0, len(results))
	for _, r := range results {
		fp := fingerprint(r.Chunk.Chunk)
		if i, ok := index[fp]; ok {
			if r.Score > out[i].Score {
				out[i] = r
			}
			continue
		}
		index[fp] = len(out)
		out = append(out, r)
	}
	return out
}

func fingerprint(text string) string {
	runes := []rune(text)
	if len(runes) > config.FingerprintRunes {
		runes = runes[:config.FingerprintRunes]
	}
	return string(runes)
}
