// Package format renders prices, ratings and truncated text for storefront views.
package format

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const ellipsis = "..."

var printer = message.NewPrinter(language.AmericanEnglish)

// Price renders an amount as US dollars with grouping, e.g. $1,299.99. The
// amount stays decimal throughout so large totals keep exact cents.
func Price(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	whole := rounded.Truncate(0)
	cents := rounded.Sub(whole).Shift(2).IntPart()

	var dollars string
	if whole.LessThanOrEqual(maxWhole) {
		dollars = printer.Sprintf("%d", whole.IntPart())
	} else {
		dollars = groupThousands(whole.String())
	}
	return fmt.Sprintf("%s$%s.%02d", sign, dollars, cents)
}

var maxWhole = decimal.NewFromInt(math.MaxInt64)

func groupThousands(digits string) string {
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate shortens text to at most max runes, appending an ellipsis when cut.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:max]), " ") + ellipsis
}

// Rating renders a 0-5 rating with one decimal place; out-of-range values are clamped.
func Rating(rate float64) string {
	switch {
	case rate < 0:
		rate = 0
	case rate > 5:
		rate = 5
	}
	return decimal.NewFromFloat(rate).StringFixed(1)
}

// Capitalize upper-cases the first rune, used for category labels.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r)) + s[size:]
}
