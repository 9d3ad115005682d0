package extract

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/cyberrag/pkg/logger_i"
	"github.com/dslipak/pdf"
)

var errPageTimeout = errors.New("page extraction timed out")

const (
	// glyphs whose baselines differ by less than this share a line, in units of font size
	baselineTolerance = 0.3
	// a horizontal gap wider than this between glyphs is a word break, in units of font size
	wordGapRatio = 0.15
)

type rawPage struct {
	Number  int
	Content string
}

// textPages walks a PDF page by page, rebuilding lines from glyph positions.
// A page that fails to decode is logged and skipped.
func textPages(ctx context.Context, path string, timeout time.Duration, logger *logger_i.Logger) iter.Seq2[rawPage, error] {
	return func(yield func(rawPage, error) bool) {
		logger.Debug("extractPDF", "attempting extraction", path)
		file, err := os.Open(path)
		if err != nil {
			logger.Error("failed opening of pdf file", "error", err)
			yield(rawPage{}, fmt.Errorf("failed to open pdf: %w", err))
			return
		}
		guard := newParseGuard(timeout)
		defer guard.closeAfter(file.Close)

		stat, err := file.Stat()
		if err != nil {
			yield(rawPage{}, fmt.Errorf("failed to stat pdf: %w", err))
			return
		}

		f, err := guarded(guard, func() (*pdf.Reader, error) { return pdf.NewReader(file, stat.Size()) })
		if err != nil {
			logger.Error("failed reading pdf structure", "error", err)
			yield(rawPage{}, fmt.Errorf("failed to read pdf: %w", err))
			return
		}

		numPages := f.NumPage()
		logger.Debug("extractPDF", "number of pages", numPages)
		for i := 1; i <= numPages; i++ {
			if err := ctx.Err(); err != nil {
				yield(rawPage{}, err)
				return
			}
			page := f.Page(i)
			if page.V.IsNull() {
				logger.Debug("extractPDF", "null page", i)
				continue
			}

			lines, err := guarded(guard, func() ([]string, error) { return contentLines(pageGlyphs(page.Content().Text)), nil })
			if err != nil {
				logger.Warn("Error parsing page content", "page", i, "error", err)
				continue
			}
			if !yield(rawPage{Number: i, Content: strings.Join(lines, "\n")}, nil) {
				return
			}
		}
	}
}

// glyph is one positioned run of text, as both PDF readers report it.
type glyph struct {
	X, Y, W, FontSize float64
	S                 string
}

func pageGlyphs(texts []pdf.Text) []glyph {
	glyphs := make([]glyph, 0, len(texts))
	for _, t := range texts {
		glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return glyphs
}

// contentLines groups glyphs by baseline, top to bottom, and orders each line left to right.
// Content streams may place lines in any order, so the stream order is not trusted.
func contentLines(glyphs []glyph) []string {
	sorted := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Y > sorted[b].Y })

	var rows [][]glyph
	for _, g := range sorted {
		if n := len(rows); n > 0 {
			first := rows[n-1][0]
			if math.Abs(first.Y-g.Y) <= baselineTolerance*math.Max(first.FontSize, 1) {
				rows[n-1] = append(rows[n-1], g)
				continue
			}
		}
		rows = append(rows, []glyph{g})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(a, b int) bool { return row[a].X < row[b].X })
		if line := joinGlyphs(row); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// joinGlyphs concatenates one line of glyphs, already in reading order.
// Words placed apart without a space glyph get one.
func joinGlyphs(glyphs []glyph) string {
	var b strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if prev.W > 0 && gap > wordGapRatio*math.Max(prev.FontSize, g.FontSize) &&
				!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(b.String(), " "))
}

// parseGuard bounds parser calls in time. Calls that outlive their deadline keep running,
// so it also tracks them and holds file cleanup until they return.
type parseGuard struct {
	timeout time.Duration
	running sync.WaitGroup
}

func newParseGuard(timeout time.Duration) *parseGuard {
	return &parseGuard{timeout: timeout}
}

// closeAfter runs closer once every call made through the guard has returned, without blocking.
func (g *parseGuard) closeAfter(closer func() error) {
	go func() {
		g.running.Wait()
		_ = closer()
	}()
}

// guarded runs fn with the guard's timeout and turns parser panics into errors.
func guarded[T any](g *parseGuard, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	resChan := make(chan result, 1)

	g.running.Add(1)
	go func() {
		defer g.running.Done()
		defer func() {
			if r := recover(); r != nil {
				var zero T
				resChan <- result{zero, fmt.Errorf("pdf parser panic: %v", r)}
			}
		}()
		v, err := fn()
		resChan <- result{v, err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.value, r.err
	case <-timer.C:
		var zero T
		return zero, errPageTimeout
	}
}
