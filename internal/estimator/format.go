// internal/estimator/format.go
package estimator

import (
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var currencyLocales = map[string]language.Tag{
	"GBP": language.BritishEnglish,
	"USD": language.AmericanEnglish,
	"EUR": language.German,
}

// symbolAfter holds the languages that write the symbol after the amount,
// separated by a no-break space, as in "1.234 €". currency.Symbol only
// supplies the symbol, so placement is decided here.
var symbolAfter = map[string]bool{
	"de": true, "fr": true, "es": true, "it": true, "pt": true,
	"fi": true, "sv": true, "da": true, "nb": true, "pl": true, "cs": true,
}

// FormatCurrency renders a whole-unit amount with the currency's symbol,
// grouped in the locale usually paired with that currency.
func FormatCurrency(amount float64, code string) string {
	tag, ok := currencyLocales[code]
	if !ok {
		tag = language.BritishEnglish
	}
	return FormatCurrencyIn(tag, amount, code)
}

// FormatCurrencyIn renders amount in the given locale with no decimals,
// rounding half away from zero. Unknown codes are printed verbatim.
func FormatCurrencyIn(tag language.Tag, amount float64, code string) string {
	p := message.NewPrinter(tag)
	whole := int64(math.Round(amount))

	unit, err := currency.ParseISO(code)
	if err != nil {
		return p.Sprintf("%s %v", code, number.Decimal(whole))
	}
	if base, _ := tag.Base(); symbolAfter[base.String()] {
		return p.Sprintf("%v\u00a0%v", number.Decimal(whole), currency.Symbol(unit))
	}
	return p.Sprintf("%v%v", currency.Symbol(unit), number.Decimal(whole))
}

// FormatCurrency formats with the card's currency and locale.
func (c *RateCard) FormatCurrency(amount float64) string {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return FormatCurrency(amount, c.Currency)
	}
	return FormatCurrencyIn(tag, amount, c.Currency)
}
