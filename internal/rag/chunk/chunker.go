package chunk

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
)

var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cyberrag/chunk"))

var separators = []string{"\n\n", "\n", " ", ""}

// Chunker splits extracted segments into retrieval-sized chunks.
// Output depends only on the segments and the settings, ids included.
type Chunker struct {
	settings config.ChunkingConfig
}

func New(settings config.ChunkingConfig) *Chunker {
	return &Chunker{settings: settings}
}

// unit is the text a splitter sees at once: one page, or one slide.
type unit struct {
	position int
	section  string
	text     string
}

// Document chunks the segments of one document. Segments sharing a position are joined with a newline first.
func (c *Chunker) Document(doc commonModels.Document, segments []commonModels.Segment) ([]commonModels.DocChunk, error) {
	settings := c.settings.For(string(doc.Type))
	splitter := newSplitter(settings)

	var chunks []commonModels.DocChunk
	ordinal := 0
	for _, u := range groupByPosition(segments) {
		parts, err := splitter.SplitText(u.text)
		if err != nil {
			return nil, fmt.Errorf("splitting %s page %d: %w", doc.Id, u.position, err)
		}
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			chunks = append(chunks, commonModels.DocChunk{
				ChunkId:      chunkID(doc.Id, u.position, ordinal, part),
				DocumentId:   doc.Id,
				DocumentType: doc.Type,
				Source:       filepath.Base(doc.Path),
				Title:        doc.Title,
				Position:     u.position,
				Section:      u.section,
				Ordinal:      ordinal,
				Chunk:        part,
			})
			ordinal++
		}
	}
	return chunks, nil
}

func newSplitter(s config.ChunkSettings) textsplitter.RecursiveCharacter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.Size),
		textsplitter.WithChunkOverlap(s.Overlap),
		textsplitter.WithSeparators(separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
}

func groupByPosition(segments []commonModels.Segment) []unit {
	var units []unit
	var lines []string
	current := unit{position: -1}

	flush := func() {
		if len(lines) > 0 {
			current.text = strings.Join(lines, "\n")
			units = append(units, current)
		}
		lines = nil
	}

	for _, seg := range segments {
		if seg.Position != current.position {
			flush()
			current = unit{position: seg.Position}
		}
		if current.section == "" {
			current.section = seg.Section
		}
		if t := strings.TrimSpace(seg.Text); t != "" {
			lines = append(lines, t)
		}
	}
	flush()
	return units
}

func chunkID(docID string, position, ordinal int, text string) string {
	key := fmt.Sprintf("%s|%d|%d|%s", docID, position, ordinal, text)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}
