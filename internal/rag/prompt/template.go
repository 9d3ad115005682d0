package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
)

// a passage cut shorter than this carries too little context to cite
const minTruncatedRunes = 200

const ragTemplate = `You are answering questions about cybersecurity standards using only the numbered context passages below.
Cite the passages you rely on as [n]. If the passages do not contain the answer, say so plainly.
{{.LanguageInstruction}}
{{if .History}}
Conversation so far:
{{range .History}}User: {{.User}}
Assistant: {{.Assistant}}
{{end}}{{end}}
Context:
{{range .Passages}}[{{.Index}}] Source: {{.Source}}, Page: {{.Page}}{{if .Section}}, Section: {{.Section}}{{end}}
{{.Text}}

{{else}}(no passages)

{{end}}Question: {{.Question}}
Answer:`

type passage struct {
	Index   int
	Source  string
	Page    int
	Section string
	Text    string
}

type turn struct {
	User      string
	Assistant string
}

type templateData struct {
	LanguageInstruction string
	History             []turn
	Passages            []passage
	Question            string
}

// Builder renders the prompt sent to the LLM. Output depends only on its inputs.
type Builder struct {
	tmpl     *template.Template
	settings config.PromptConfig
}

func New(settings config.PromptConfig) (*Builder, error) {
	tmpl, err := template.New("rag").Parse(ragTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &Builder{tmpl: tmpl, settings: settings}, nil
}

func (b *Builder) Render(result commonModels.RetrievalResult, query commonModels.Query, history []commonModels.ConversationTurn) (string, error) {
	data := templateData{
		LanguageInstruction: languageInstruction(query.Language),
		History:             b.boundHistory(history),
		Passages:            b.boundPassages(result.Chunks),
		Question:            strings.TrimSpace(query.Text),
	}

	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return sb.String(), nil
}

func (b *Builder) boundPassages(chunks []commonModels.ScoredChunk) []passage {
	remaining := b.settings.MaxContextChars
	var out []passage
	for _, c := range chunks {
		if remaining <= 0 {
			break
		}
		text := []rune(strings.TrimSpace(c.Chunk.Chunk))
		if len(text) > remaining {
			if remaining < minTruncatedRunes {
				break
			}
			text = text[:remaining]
		}
		remaining -= len(text)
		out = append(out, passage{
			Index:   len(out) + 1,
			Source:  c.Chunk.Source,
			Page:    c.Chunk.Position,
			Section: c.Chunk.Section,
			Text:    string(text),
		})
	}
	return out
}

func (b *Builder) boundHistory(history []commonModels.ConversationTurn) []turn {
	if b.settings.MaxHistoryTurns <= 0 {
		return nil
	}
	if len(history) > b.settings.MaxHistoryTurns {
		history = history[len(history)-b.settings.MaxHistoryTurns:]
	}
	out := make([]turn, 0, len(history))
	for _, h := range history {
		out = append(out, turn{
			User:      truncate(h.User, b.settings.MaxTurnChars),
			Assistant: truncate(h.Assistant, b.settings.MaxTurnChars),
		})
	}
	return out
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}

func languageInstruction(lang commonModels.Language) string {
	switch lang {
	case commonModels.LanguageEnglish:
		return "Answer in English."
	case commonModels.LanguageThai:
		return "Answer in Thai (ภาษาไทย)."
	default:
		return "Answer in the same language as the question."
	}
}
