// Package scrape extracts the current quote from a fetched quote page.
package scrape

import (
	"errors"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/shopspring/decimal"

	apperrors "kabuka-watcher/internal/errors"
)

// Defaults match the quote pages the watcher was written for.
const (
	DefaultSelector       = ".kabuka"
	DefaultCurrencyToken  = "円"
	DefaultGroupSeparator = ","
)

const (
	maxQuoteDigits    = 19
	maxFractionDigits = 64
)

var maxQuote = decimal.NewFromInt(math.MaxInt64)

// ExtractorConfig controls how the quote element is located and cleaned.
type ExtractorConfig struct {
	Selector       string
	CurrencyToken  string
	GroupSeparator string
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Selector:       DefaultSelector,
		CurrencyToken:  DefaultCurrencyToken,
		GroupSeparator: DefaultGroupSeparator,
	}
}

// Extractor reads a rounded integer quote from HTML. It is safe for
// concurrent use.
type Extractor struct {
	cfg     ExtractorConfig
	matcher goquery.Matcher
}

// NewExtractor compiles the configured selector.
func NewExtractor(cfg ExtractorConfig) (*Extractor, error) {
	if cfg.Selector == "" {
		cfg.Selector = DefaultSelector
	}
	sel, err := cascadia.Compile(cfg.Selector)
	if err != nil {
		return nil, apperrors.Wrapf(err, "compiling selector %q", cfg.Selector)
	}
	return &Extractor{cfg: cfg, matcher: sel}, nil
}

// Selector returns the CSS selector in use.
func (e *Extractor) Selector() string {
	return e.cfg.Selector
}

// Extract parses document, takes the text of the first element matching the
// selector in document order and converts it to an integer quote.
func (e *Extractor) Extract(document string) (int64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return 0, apperrors.NewExtractionError(apperrors.ExtractNoMatch, e.cfg.Selector, "", err)
	}

	match := doc.FindMatcher(e.matcher).First()
	if match.Length() == 0 {
		return 0, apperrors.NewExtractionError(apperrors.ExtractNoMatch, e.cfg.Selector, "", nil)
	}

	return e.ParseAmount(match.Text())
}

// ParseAmount strips the currency token and grouping separators from text
// and rounds the remaining decimal half away from zero.
func (e *Extractor) ParseAmount(text string) (int64, error) {
	cleaned := text
	if e.cfg.CurrencyToken != "" {
		cleaned = strings.ReplaceAll(cleaned, e.cfg.CurrencyToken, "")
	}
	if e.cfg.GroupSeparator != "" {
		cleaned = strings.ReplaceAll(cleaned, e.cfg.GroupSeparator, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, apperrors.NewExtractionError(apperrors.ExtractNumericFormat, e.cfg.Selector, text, err)
	}
	if amount.IsNegative() {
		return 0, apperrors.NewExtractionError(apperrors.ExtractNumericFormat, e.cfg.Selector, text,
			errors.New("negative quote"))
	}

	// Rounding rescales the coefficient by the exponent, so the magnitude is
	// bounded from the digit count before any arithmetic.
	exp := int64(amount.Exponent())
	intDigits := int64(len(amount.Coefficient().String())) + exp
	switch {
	case intDigits > maxQuoteDigits:
		return 0, apperrors.NewExtractionError(apperrors.ExtractNumericFormat, e.cfg.Selector, text,
			errors.New("quote overflows int64"))
	case intDigits < 0:
		// below 0.1
		return 0, nil
	case -exp > maxFractionDigits:
		return 0, apperrors.NewExtractionError(apperrors.ExtractNumericFormat, e.cfg.Selector, text,
			errors.New("too many fractional digits"))
	}

	rounded := amount.Round(0)
	if rounded.GreaterThan(maxQuote) {
		return 0, apperrors.NewExtractionError(apperrors.ExtractNumericFormat, e.cfg.Selector, text,
			errors.New("quote overflows int64"))
	}

	return rounded.IntPart(), nil
}
