package scrape

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "kabuka-watcher/internal/errors"
)

func newDefaultExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultExtractorConfig())
	require.NoError(t, err)
	return e
}

func page(body string) string {
	return "<!DOCTYPE html><html><head><title>quote</title></head><body>" + body + "</body></html>"
}

func TestExtract(t *testing.T) {
	e := newDefaultExtractor(t)

	tests := []struct {
		name string
		body string
		want int64
	}{
		{"grouped yen", `<span class="kabuka">2,500円</span>`, 2500},
		{"decimal rounds down", `<span class="kabuka">1,234.4円</span>`, 1234},
		{"decimal rounds half up", `<span class="kabuka">1,234.5円</span>`, 1235},
		{"no currency", `<span class="kabuka">987</span>`, 987},
		{"surrounding whitespace", "<td class=\"kabuka\">\n  12,345.67円 \n</td>", 12346},
		{"nested text", `<div class="kabuka"><b>3,</b><i>100</i>円</div>`, 3100},
		{"other classes", `<span class="price kabuka big">42円</span>`, 42},
		{"zero", `<span class="kabuka">0円</span>`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(page(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractFirstMatchWins(t *testing.T) {
	e := newDefaultExtractor(t)

	doc := page(`
		<div id="main"><span class="kabuka">1,111円</span></div>
		<div id="side"><span class="kabuka">9,999円</span></div>`)

	got, err := e.Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, int64(1111), got)
}

func TestExtractNoMatch(t *testing.T) {
	e := newDefaultExtractor(t)

	_, err := e.Extract(page(`<span class="price">2,500円</span>`))
	require.Error(t, err)

	var xe *apperrors.ExtractionError
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, apperrors.ExtractNoMatch, xe.Kind)
	assert.Equal(t, ".kabuka", xe.Selector)

	_, err = e.Extract("")
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, apperrors.ExtractNoMatch, xe.Kind)
}

func TestExtractNumericFormat(t *testing.T) {
	e := newDefaultExtractor(t)

	for _, text := range []string{"---", "", "円", "2.500.1円", "-5円", "1e", "99999999999999999999999円", "1e20000000円", "1e2000000000円", "9.9e18円", "1." + strings.Repeat("0", 100) + "1円"} {
		t.Run(text, func(t *testing.T) {
			_, err := e.Extract(page(`<span class="kabuka">` + text + `</span>`))
			var xe *apperrors.ExtractionError
			require.ErrorAs(t, err, &xe)
			assert.Equal(t, apperrors.ExtractNumericFormat, xe.Kind)
			assert.Equal(t, text, xe.Text)
		})
	}
}

func TestExtractExponentIsBounded(t *testing.T) {
	e := newDefaultExtractor(t)

	tests := []struct {
		text string
		want int64
		ok   bool
	}{
		{"2.5e3円", 2500, true},
		{"1e18円", 1_000_000_000_000_000_000, true},
		{"5e-1円", 1, true},
		{"4.9e-1円", 0, true},
		{"1e-2000000000円", 0, true},
		{"1e19円", 0, false},
		{"1e20000000円", 0, false},
		{"1E2000000000円", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			start := time.Now()
			got, err := e.Extract(page(`<span class="kabuka">` + tt.text + `</span>`))
			assert.Less(t, time.Since(start), time.Second)

			if !tt.ok {
				var xe *apperrors.ExtractionError
				require.ErrorAs(t, err, &xe)
				assert.Equal(t, apperrors.ExtractNumericFormat, xe.Kind)
				assert.Less(t, len(err.Error()), 256)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCustomSelectorAndCurrency(t *testing.T) {
	e, err := NewExtractor(ExtractorConfig{
		Selector:       "#last-price",
		CurrencyToken:  "$",
		GroupSeparator: ",",
	})
	require.NoError(t, err)
	assert.Equal(t, "#last-price", e.Selector())

	got, err := e.Extract(page(`<p class="kabuka">1円</p><p id="last-price">$1,024.75</p>`))
	require.NoError(t, err)
	assert.Equal(t, int64(1025), got)
}

func TestNewExtractorInvalidSelector(t *testing.T) {
	_, err := NewExtractor(ExtractorConfig{Selector: "[[["})
	assert.Error(t, err)
}

// Property: for any non-negative decimal rendered with grouping separators
// and a currency glyph, extraction yields the value rounded half away from zero.
func TestProperty_ExtractRoundsDecimal(t *testing.T) {
	e := newDefaultExtractor(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("extract(render(x)) == round(x)", prop.ForAll(
		func(whole int64, frac int, digits int) bool {
			text := groupThousands(whole)
			scale := 1
			if digits > 0 {
				frac = frac % pow10(digits)
				text += "." + fmt.Sprintf("%0*d", digits, frac)
				scale = pow10(digits)
			}
			want := whole
			if digits > 0 && frac*2 >= scale {
				want++
			}

			got, err := e.Extract(page(`<span class="kabuka">` + text + `円</span>`))
			if err != nil {
				t.Logf("extract %q: %v", text, err)
				return false
			}
			if got != want {
				t.Logf("extract %q: got %d want %d", text, got, want)
				return false
			}
			return true
		},
		gen.Int64Range(0, 50_000_000),
		gen.IntRange(0, 999),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func pow10(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}
