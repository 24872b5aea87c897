package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Currency struct {
	Code   string  `json:"code"`
	Symbol string  `json:"symbol"`
	Rate   float64 `json:"rate"`
	Name   string  `json:"name"`
}

const DefaultCurrency = "USD"

// Currencies holds display conversion rates relative to USD.
var Currencies = []Currency{
	{Code: "USD", Symbol: "$", Rate: 1, Name: "US Dollar"},
	{Code: "EUR", Symbol: "€", Rate: 0.91, Name: "Euro"},
	{Code: "GBP", Symbol: "£", Rate: 0.79, Name: "British Pound"},
	{Code: "JPY", Symbol: "¥", Rate: 143.62, Name: "Japanese Yen"},
	{Code: "AUD", Symbol: "A$", Rate: 1.51, Name: "Australian Dollar"},
	{Code: "CAD", Symbol: "C$", Rate: 1.34, Name: "Canadian Dollar"},
}

func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

var amountPrinter = message.NewPrinter(language.English)

// Format converts a USD amount and renders it with two decimals and grouping.
func (c Currency) Format(usd float64) string {
	return c.Symbol + amountPrinter.Sprintf("%.2f", usd*c.Rate)
}

// FormatAmount formats a USD amount in the given currency, falling back to USD.
func FormatAmount(code string, usd float64) string {
	c, ok := LookupCurrency(code)
	if !ok {
		c = Currencies[0]
	}
	return c.Format(usd)
}
