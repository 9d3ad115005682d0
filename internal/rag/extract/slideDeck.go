package extract

import (
	"context"
	"iter"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	lpdf "github.com/ledongthuc/pdf"
)

const minSlideTextRunes = 3

// slideDeckExtractor reads slides row by row so the top row can serve as the slide title.
type slideDeckExtractor struct {
	opts     Options
	excluded []string
}

func newSlideDeckExtractor(opts Options) *slideDeckExtractor {
	excluded := make([]string, 0, len(opts.ExcludedSlideTexts))
	for _, t := range opts.ExcludedSlideTexts {
		if n := normaliseFooter(t); n != "" {
			excluded = append(excluded, n)
		}
	}
	return &slideDeckExtractor{opts: opts, excluded: excluded}
}

func (e *slideDeckExtractor) Extract(ctx context.Context, doc commonModels.Document) iter.Seq2[commonModels.Segment, error] {
	logger := extractLogger(ctx, "slide_deck", doc)
	return requireContent(doc, func(yield func(commonModels.Segment, error) bool) {
		guard := newParseGuard(e.opts.PageTimeout)
		var file *os.File
		defer guard.closeAfter(func() error {
			if file == nil {
				return nil
			}
			return file.Close()
		})

		reader, err := guarded(guard, func() (*lpdf.Reader, error) {
			f, r, err := lpdf.Open(doc.Path)
			file = f
			return r, err
		})
		if err != nil {
			logger.Error("failed opening slide deck", "error", err)
			yield(commonModels.Segment{}, noContent(doc, err))
			return
		}

		numSlides := reader.NumPage()
		logger.Debug("extractSlides", "number of slides", numSlides)
		for i := 1; i <= numSlides; i++ {
			if err := ctx.Err(); err != nil {
				yield(commonModels.Segment{}, err)
				return
			}
			page := reader.Page(i)
			if page.V.IsNull() {
				continue
			}
			lines, err := guarded(guard, func() ([]string, error) { return contentLines(slideGlyphs(page.Content().Text)), nil })
			if err != nil {
				logger.Warn("Error parsing slide rows", "slide", i, "error", err)
				continue
			}
			for _, seg := range e.slideSegments(doc.Id, i, lines) {
				if !yield(seg, nil) {
					return
				}
			}
		}
	})
}

func slideGlyphs(texts []lpdf.Text) []glyph {
	glyphs := make([]glyph, 0, len(texts))
	for _, t := range texts {
		glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return glyphs
}

// slideSegments turns the lines of one slide into segments, the first surviving line being the title.
func (e *slideDeckExtractor) slideSegments(docId string, slide int, lines []string) []commonModels.Segment {
	var segments []commonModels.Segment
	title := ""
	for _, line := range lines {
		if utf8.RuneCountInString(line) < minSlideTextRunes || bareNumber.MatchString(line) || e.isExcluded(line) {
			continue
		}
		seg := commonModels.Segment{
			DocumentId: docId,
			Position:   slide,
			Text:       line,
		}
		if title == "" {
			title = line
			seg.IsTitle = true
		}
		seg.Section = title
		segments = append(segments, seg)
	}
	return segments
}

func (e *slideDeckExtractor) isExcluded(line string) bool {
	n := normaliseFooter(line)
	for _, ex := range e.excluded {
		if n == ex || strings.HasPrefix(n, ex) {
			return true
		}
	}
	return false
}

// normaliseFooter collapses whitespace and drops a trailing page number.
func normaliseFooter(s string) string {
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	return strings.TrimSpace(strings.TrimRight(s, "0123456789"))
}
