package extract

import (
	"context"
	"iter"
	"strings"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/lu4p/cat"
)

// plainTextExtractor reads .txt, .docx, .rtf and .odt files; form feeds separate pages.
type plainTextExtractor struct{}

func newPlainTextExtractor() *plainTextExtractor {
	return &plainTextExtractor{}
}

func (e *plainTextExtractor) Extract(ctx context.Context, doc commonModels.Document) iter.Seq2[commonModels.Segment, error] {
	logger := extractLogger(ctx, "plain_text", doc)
	return requireContent(doc, func(yield func(commonModels.Segment, error) bool) {
		text, err := cat.File(doc.Path)
		if err != nil {
			logger.Error("Error extracting content from doc", "error", err)
			yield(commonModels.Segment{}, noContent(doc, err))
			return
		}

		for i, page := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\f") {
			page = strings.TrimSpace(manyNewlines.ReplaceAllString(page, "\n\n"))
			if page == "" {
				continue
			}
			if !yield(commonModels.Segment{DocumentId: doc.Id, Position: i + 1, Text: page}, nil) {
				return
			}
		}
	})
}
