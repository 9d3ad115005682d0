package commonModels

import "time"

type DocType string

const (
	SlideDeck         DocType = "slide_deck"
	Textbook          DocType = "textbook"
	LocalizedStandard DocType = "localized_standard"
	PlainText         DocType = "plain_text"
)

func (t DocType) Valid() bool {
	switch t {
	case SlideDeck, Textbook, LocalizedStandard, PlainText:
		return true
	}
	return false
}

type Document struct {
	Id    string  `json:"source_doc_id" yaml:"id"`
	Path  string  `json:"path" yaml:"path"`
	Title string  `json:"title" yaml:"title"`
	Type  DocType `json:"type" yaml:"type"`
}

// Segment is one unit of extracted text. Position is the 1-based page or slide.
type Segment struct {
	DocumentId string `json:"source_doc_id"`
	Position   int    `json:"page"`
	Section    string `json:"section,omitempty"`
	Text       string `json:"text"`
	IsTitle    bool   `json:"is_title,omitempty"`
}

type DocChunk struct {
	ChunkId        string  `json:"chunk_id"`
	DocumentId     string  `json:"source_doc_id"`
	DocumentType   DocType `json:"doc_type"`
	Source         string  `json:"source"`
	Title          string  `json:"doc_title"`
	Position       int     `json:"page"`
	Section        string  `json:"section,omitempty"`
	Ordinal        int     `json:"chunk_order"`
	Chunk          string  `json:"content"`
	EmbeddingModel string  `json:"embedding_model,omitempty"`
}

type ScoredChunk struct {
	Chunk DocChunk `json:"chunk"`
	Score float32  `json:"score"`
}

type Language string

const (
	LanguageAuto    Language = "auto"
	LanguageEnglish Language = "en"
	LanguageThai    Language = "th"
)

// ParseLanguage accepts codes and the labels shown in the chat UI.
func ParseLanguage(s string) Language {
	switch s {
	case "en", "English", "english":
		return LanguageEnglish
	case "th", "Thai", "thai", "Thai (ไทย)", "ไทย":
		return LanguageThai
	default:
		return LanguageAuto
	}
}

// RetrievalResult holds at most K chunks ordered by non-increasing score.
type RetrievalResult struct {
	Query            string        `json:"query"`
	K                int           `json:"k"`
	Chunks           []ScoredChunk `json:"chunks"`
	DetectedLanguage Language      `json:"detected_language"`
	ExpandedQueries  []string      `json:"expanded_queries,omitempty"`
	SearchDepth      int           `json:"search_depth"`
}

type ConversationTurn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	CreatedAt time.Time `json:"created_at"`
}

type Query struct {
	SessionId string   `json:"session_id"`
	Text      string   `json:"text"`
	K         int      `json:"k"`
	Language  Language `json:"language"`
}

type Answer struct {
	SessionId string        `json:"session_id"`
	Text      string        `json:"answer"`
	HTML      string        `json:"html,omitempty"`
	Sources   []ScoredChunk `json:"sources"`
	Debug     string        `json:"debug"`
}
