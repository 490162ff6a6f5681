package models

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency is a supported display currency.
type Currency string

const (
	CurrencyUSD  Currency = "USD"
	CurrencyEUR  Currency = "EUR"
	CurrencyFCFA Currency = "FCFA"
)

// Currencies lists the supported currencies.
var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyFCFA}

// Valid reports whether c is supported.
func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

// FormatPrice renders amount for display in the given currency. Unknown
// currencies fall back to a plain two-decimal amount followed by the code.
func FormatPrice(amount float64, currency Currency) string {
	switch currency {
	case CurrencyUSD:
		p := message.NewPrinter(language.AmericanEnglish)
		return "$" + p.Sprint(number.Decimal(amount, number.Scale(2)))
	case CurrencyEUR:
		p := message.NewPrinter(language.French)
		return p.Sprint(number.Decimal(amount, number.Scale(2))) + " €"
	case CurrencyFCFA:
		// CFA francs have no minor unit.
		p := message.NewPrinter(language.French)
		return p.Sprint(number.Decimal(amount, number.Scale(0))) + " FCFA"
	default:
		p := message.NewPrinter(language.English)
		return p.Sprint(number.Decimal(amount, number.Scale(2))) + " " + string(currency)
	}
}
