// Package money formats amounts for templates. Currency codes are validated
// against ISO 4217; numbers follow the locale of the configured language.
package money

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// AutoDecimals takes the precision from the ISO 4217 standard rounding.
const AutoDecimals = -1

// DefaultCode is used when no default currency is configured.
const DefaultCode = "EUR"

// Currency describes how one currency is printed.
type Currency struct {
	Code        string `yaml:"code" json:"code"`
	Symbol      string `yaml:"symbol" json:"symbol"`
	Decimals    int    `yaml:"decimals" json:"decimals"`
	SymbolRight bool   `yaml:"symbol_right" json:"symbol_right"`
}

var knownCurrencies = []Currency{
	{Code: "EUR", Symbol: "€", Decimals: AutoDecimals, SymbolRight: true},
	{Code: "USD", Symbol: "$", Decimals: AutoDecimals},
	{Code: "GBP", Symbol: "£", Decimals: AutoDecimals},
	{Code: "MXN", Symbol: "$", Decimals: AutoDecimals},
	{Code: "ARS", Symbol: "$", Decimals: AutoDecimals},
	{Code: "COP", Symbol: "$", Decimals: AutoDecimals},
	{Code: "CLP", Symbol: "$", Decimals: AutoDecimals},
	{Code: "JPY", Symbol: "¥", Decimals: AutoDecimals},
	{Code: "CHF", Symbol: "CHF", Decimals: AutoDecimals, SymbolRight: true},
}

// Option customises a Formatter.
type Option func(*Formatter) error

// WithCurrency registers or replaces a currency.
func WithCurrency(c Currency) Option {
	return func(f *Formatter) error {
		return f.register(c)
	}
}

// Formatter prints amounts in a fixed language. Safe for concurrent use.
type Formatter struct {
	mu          sync.RWMutex
	lang        language.Tag
	printer     *message.Printer
	defaultCode string
	currencies  map[string]Currency
}

// New builds a formatter for lang (e.g. "es_ES") with defaultCode as the
// fallback currency.
func New(lang, defaultCode string, opts ...Option) (*Formatter, error) {
	tag := language.Make(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
	f := &Formatter{
		lang:       tag,
		printer:    message.NewPrinter(tag),
		currencies: make(map[string]Currency, len(knownCurrencies)),
	}
	for _, c := range knownCurrencies {
		if err := f.register(c); err != nil {
			return nil, err
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	code := strings.ToUpper(strings.TrimSpace(defaultCode))
	if code == "" {
		code = DefaultCode
	}
	if _, ok := f.currencies[code]; !ok {
		if err := f.register(Currency{Code: code, Decimals: AutoDecimals}); err != nil {
			return nil, fmt.Errorf("money: default currency: %w", err)
		}
	}
	f.defaultCode = code
	return f, nil
}

// Default returns the fallback currency.
func (f *Formatter) Default() Currency {
	c, _ := f.Lookup(f.defaultCode)
	return c
}

// Lookup returns a registered currency by ISO code.
func (f *Formatter) Lookup(code string) (Currency, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.currencies[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Format prints amount in the currency named by code. An empty or unknown
// code uses the default currency.
func (f *Formatter) Format(amount float64, code string) string {
	c, ok := f.Lookup(code)
	if !ok {
		c = f.Default()
	}
	digits := f.printer.Sprint(number.Decimal(amount, number.Scale(c.Decimals)))
	switch {
	case c.Symbol == "":
		return digits + " " + c.Code
	case c.SymbolRight:
		return digits + " " + c.Symbol
	default:
		return c.Symbol + digits
	}
}

func (f *Formatter) register(c Currency) error {
	code := strings.ToUpper(strings.TrimSpace(c.Code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Errorf("money: currency %q: %w", c.Code, err)
	}
	c.Code = unit.String()
	if c.Decimals < 0 {
		scale, _ := currency.Standard.Rounding(unit)
		c.Decimals = scale
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.currencies[c.Code] = c
	return nil
}
