package extract

import (
	"context"
	"errors"
	"iter"
	"regexp"
	"strings"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
)

var (
	bareNumber      = regexp.MustCompile(`^\s*[0-9๐-๙]{1,4}\s*$`)
	pageMarker      = regexp.MustCompile(`(?i)^\s*(page\s+\d+(\s+of\s+\d+)?|\d+\s+of\s+\d+)\s*$`)
	numberedHeading = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+\p{Lu}[^.]{2,80}$`)
	manyNewlines    = regexp.MustCompile(`\n{3,}`)
)

// running headers and footers live in the first and last lines of a page
const headerFooterLines = 2

type textbookExtractor struct {
	opts Options
}

func newTextbookExtractor(opts Options) *textbookExtractor {
	return &textbookExtractor{opts: opts}
}

func (e *textbookExtractor) Extract(ctx context.Context, doc commonModels.Document) iter.Seq2[commonModels.Segment, error] {
	logger := extractLogger(ctx, "textbook", doc)
	return requireContent(doc, func(yield func(commonModels.Segment, error) bool) {
		section := ""
		for page, err := range textPages(ctx, doc.Path, e.opts.PageTimeout, logger) {
			if err != nil {
				yield(commonModels.Segment{}, pageError(doc, err))
				return
			}

			body, headings := cleanTextbookPage(page.Content, e.opts.TextbookHeaderPatterns)
			pageSection := section
			if len(headings) > 0 {
				pageSection = headings[0]
				section = headings[len(headings)-1]
			}
			if body == "" {
				continue
			}
			seg := commonModels.Segment{
				DocumentId: doc.Id,
				Position:   page.Number,
				Section:    pageSection,
				Text:       body,
			}
			if !yield(seg, nil) {
				return
			}
		}
	})
}

// cleanTextbookPage drops page numbers and running headers, returning the body and the numbered headings it contains.
func cleanTextbookPage(content string, headerPatterns []*regexp.Regexp) (string, []string) {
	var kept []string
	var headings []string
	for _, l := range stripPageNumbers(strings.Split(strings.ReplaceAll(content, "\r", ""), "\n")) {
		line := strings.TrimRight(l, " \t")
		trimmed := strings.TrimSpace(line)
		if matchesAny(headerPatterns, trimmed) {
			continue
		}
		if numberedHeading.MatchString(trimmed) {
			headings = append(headings, trimmed)
		}
		kept = append(kept, line)
	}

	body := manyNewlines.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	return strings.TrimSpace(body), headings
}

// stripPageNumbers removes bare page numbers and "page N of M" markers from the edge lines of a page.
// Numbers further inside the page are body text.
func stripPageNumbers(lines []string) []string {
	var nonEmpty []int
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, i)
		}
	}
	edge := make(map[int]bool, 2*headerFooterLines)
	for i := 0; i < len(nonEmpty) && i < headerFooterLines; i++ {
		edge[nonEmpty[i]] = true
		edge[nonEmpty[len(nonEmpty)-1-i]] = true
	}

	kept := make([]string, 0, len(lines))
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if edge[i] && (bareNumber.MatchString(trimmed) || pageMarker.MatchString(trimmed)) {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// pageError keeps cancellation visible as such; everything else means the file gave no content.
func pageError(doc commonModels.Document, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return noContent(doc, err)
}
