package extract

import (
	"context"
	"iter"
	"regexp"
	"strings"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t\x{00A0}]+`)
	spaceAroundNL = regexp.MustCompile(` *\n *`)
	thaiHeading   = regexp.MustCompile(`^(หมวด(ที่)?|ส่วนที่|บทที่|ภาคผนวก)\s*[0-9๐-๙]*`)
)

// localizedStandardExtractor reads the Thai standard, whose text layer needs normalising before it is usable.
type localizedStandardExtractor struct {
	opts Options
}

func newLocalizedStandardExtractor(opts Options) *localizedStandardExtractor {
	return &localizedStandardExtractor{opts: opts}
}

func (e *localizedStandardExtractor) Extract(ctx context.Context, doc commonModels.Document) iter.Seq2[commonModels.Segment, error] {
	logger := extractLogger(ctx, "localized_standard", doc)
	return requireContent(doc, func(yield func(commonModels.Segment, error) bool) {
		section := ""
		for page, err := range textPages(ctx, doc.Path, e.opts.PageTimeout, logger) {
			if err != nil {
				yield(commonModels.Segment{}, pageError(doc, err))
				return
			}
			text := cleanThaiText(page.Content)
			if text == "" {
				continue
			}
			if h := firstThaiHeading(text); h != "" {
				section = h
			}
			seg := commonModels.Segment{
				DocumentId: doc.Id,
				Position:   page.Number,
				Section:    section,
				Text:       text,
			}
			if !yield(seg, nil) {
				return
			}
		}
	})
}

// cleanThaiText normalises the Thai text layer and drops page numbers, which are often set in Thai digits.
func cleanThaiText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.Join(stripPageNumbers(strings.Split(s, "\n")), "\n")
	s = strings.ReplaceAll(s, "\u200b", "")
	s = strings.ReplaceAll(s, "|", "I")
	s = spaceRun.ReplaceAllString(s, " ")
	s = spaceAroundNL.ReplaceAllString(s, "\n")
	s = manyNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func firstThaiHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if thaiHeading.MatchString(line) {
			return line
		}
	}
	return ""
}
