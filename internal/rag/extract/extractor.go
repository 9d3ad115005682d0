package extract

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"time"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

// Extractor turns one document layout into an ordered, lazily produced sequence of segments.
// A document that yields nothing ends its sequence with commonModels.ErrNoContent.
type Extractor interface {
	Extract(ctx context.Context, doc commonModels.Document) iter.Seq2[commonModels.Segment, error]
}

type Options struct {
	PageTimeout            time.Duration
	ExcludedSlideTexts     []string
	TextbookHeaderPatterns []*regexp.Regexp
}

func OptionsFromConfig(cfg config.ExtractionConfig) (Options, error) {
	opts := Options{
		PageTimeout:        cfg.PageTimeout,
		ExcludedSlideTexts: cfg.ExcludedSlideTexts,
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = config.PageExtractTimeout
	}
	for _, p := range cfg.TextbookHeaderRegex {
		re, err := regexp.Compile(p)
		if err != nil {
			return Options{}, fmt.Errorf("textbook header pattern %q: %w", p, err)
		}
		opts.TextbookHeaderPatterns = append(opts.TextbookHeaderPatterns, re)
	}
	return opts, nil
}

// ForType selects the extractor of a document type.
func ForType(docType commonModels.DocType, opts Options) (Extractor, error) {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = config.PageExtractTimeout
	}
	switch docType {
	case commonModels.SlideDeck:
		return newSlideDeckExtractor(opts), nil
	case commonModels.Textbook:
		return newTextbookExtractor(opts), nil
	case commonModels.LocalizedStandard:
		return newLocalizedStandardExtractor(opts), nil
	case commonModels.PlainText:
		return newPlainTextExtractor(), nil
	default:
		return nil, fmt.Errorf("unsupported document type: %q", docType)
	}
}

// Collect drains a segment sequence, stopping at the first error.
func Collect(seq iter.Seq2[commonModels.Segment, error]) ([]commonModels.Segment, error) {
	var segments []commonModels.Segment
	for seg, err := range seq {
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// requireContent ends an empty sequence with ErrNoContent instead of finishing silently.
func requireContent(doc commonModels.Document, segments iter.Seq2[commonModels.Segment, error]) iter.Seq2[commonModels.Segment, error] {
	return func(yield func(commonModels.Segment, error) bool) {
		produced := 0
		for seg, err := range segments {
			if err != nil {
				yield(commonModels.Segment{}, err)
				return
			}
			produced++
			if !yield(seg, nil) {
				return
			}
		}
		if produced == 0 {
			yield(commonModels.Segment{}, fmt.Errorf("%w: %s (%s)", commonModels.ErrNoContent, doc.Id, doc.Path))
		}
	}
}

func noContent(doc commonModels.Document, cause error) error {
	return fmt.Errorf("%w: %s (%s): %w", commonModels.ErrNoContent, doc.Id, doc.Path, cause)
}

func extractLogger(ctx context.Context, kind string, doc commonModels.Document) *logger_i.Logger {
	return logger_i.NewLogger("extract_"+kind).WithTrace(ctx, config.TRACE_ID_KEY).With("document", doc.Id)
}
