// Package ingesttest holds an in-memory corpus standing in for the three source documents.
package ingesttest

import (
	"context"
	"iter"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
)

// StaticExtractor serves fixed segments per document id. Documents without segments yield ErrNoContent.
type StaticExtractor struct {
	Segments map[string][]commonModels.Segment
	Err      error
}

func (s *StaticExtractor) Extract(_ context.Context, doc commonModels.Document) iter.Seq2[commonModels.Segment, error] {
	return func(yield func(commonModels.Segment, error) bool) {
		if s.Err != nil {
			yield(commonModels.Segment{}, s.Err)
			return
		}
		segs, ok := s.Segments[doc.Id]
		if !ok || len(segs) == 0 {
			yield(commonModels.Segment{}, commonModels.ErrNoContent)
			return
		}
		for _, seg := range segs {
			if !yield(seg, nil) {
				return
			}
		}
	}
}

const (
	OwaspID = "owasp-top-10"
	MitreID = "mitre-attack-philosophy-2020"
	ThaiID  = "thailand-web-security-standard-2025"
)

// Corpus is a small synthetic rendition of the three sample documents.
func Corpus() map[string][]commonModels.Segment {
	return map[string][]commonModels.Segment{
		OwaspID: {
			{DocumentId: OwaspID, Position: 1, Section: "OWASP Top 10 2021", Text: "OWASP Top 10 2021", IsTitle: true},
			{DocumentId: OwaspID, Position: 1, Section: "OWASP Top 10 2021", Text: "The ten most critical web application security risks"},
			{DocumentId: OwaspID, Position: 2, Section: "A01:2021 Broken Access Control", Text: "A01:2021 Broken Access Control", IsTitle: true},
			{DocumentId: OwaspID, Position: 2, Section: "A01:2021 Broken Access Control", Text: "The OWASP Top 10 category for broken access control covers violation of least privilege, bypassing access control checks and insecure direct object identifiers"},
			{DocumentId: OwaspID, Position: 3, Section: "A03:2021 Injection", Text: "A03:2021 Injection", IsTitle: true},
			{DocumentId: OwaspID, Position: 3, Section: "A03:2021 Injection", Text: "SQL, NoSQL, OS command and LDAP injection occur when untrusted data is sent to an interpreter"},
		},
		MitreID: {
			{DocumentId: MitreID, Position: 1, Section: "1 Introduction", Text: "MITRE ATT&CK is a globally accessible knowledge base of adversary tactics and techniques based on real world observations"},
			{DocumentId: MitreID, Position: 2, Section: "2 The ATT&CK Model", Text: "Tactics represent the adversary's technical goals. Techniques describe how the adversary achieves a tactical goal by performing an action"},
			{DocumentId: MitreID, Position: 9, Section: "References", Text: "References and bibliography for the ATT&CK design and philosophy paper"},
		},
		ThaiID: {
			{DocumentId: ThaiID, Position: 1, Text: "สารบัญ หมวดที่ 1 บททั่วไป หมวดที่ 2 การควบคุมการเข้าถึง"},
			{DocumentId: ThaiID, Position: 4, Section: "หมวดที่ 2", Text: "หมวดที่ 2 การควบคุมการเข้าถึง หน่วยงานภาครัฐต้องกำหนดสิทธิ์การเข้าถึงเว็บไซต์ตามมาตรฐานความปลอดภัยเว็บไซต์"},
			{DocumentId: ThaiID, Position: 6, Section: "หมวดที่ 3", Text: "หมวดที่ 3 การเข้ารหัส เว็บไซต์ต้องใช้การเข้ารหัส TLS สำหรับการยืนยันตัวตน"},
		},
	}
}

// Extractors serves Corpus for every PDF document type.
func Extractors() map[commonModels.DocType]*StaticExtractor {
	ex := &StaticExtractor{Segments: Corpus()}
	return map[commonModels.DocType]*StaticExtractor{
		commonModels.SlideDeck:         ex,
		commonModels.Textbook:          ex,
		commonModels.LocalizedStandard: ex,
	}
}

// Config returns a configuration rooted in dir with the three sample documents.
func Config(dir string) *config.Config {
	cfg := config.Default()
	cfg.Dataset.Dir = dir
	cfg.Dataset.Documents = config.DefaultDocuments()
	cfg.VectorStore.PersistDir = dir
	cfg.Embedding.BatchSize = 4
	return cfg
}
