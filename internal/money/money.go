package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AdvanceShare is the conventional advance portion of a commission's total price.
var AdvanceShare = decimal.RequireFromString("0.30")

// Advance returns the default advance for total, rounded half away from zero to cents.
func Advance(total decimal.Decimal) decimal.Decimal {
	return total.Mul(AdvanceShare).Round(2)
}

// Formatter renders amounts for humans in a fixed currency and locale.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

func NewFormatter(unit currency.Unit) *Formatter {
	return &Formatter{
		unit:    unit,
		printer: message.NewPrinter(language.English),
	}
}

// Format returns e.g. "USD 1,250.00".
func (f *Formatter) Format(amount decimal.Decimal) string {
	return f.printer.Sprintf("%s %.2f", f.unit.String(), amount.Round(2).InexactFloat64())
}

func (f *Formatter) Currency() currency.Unit {
	return f.unit
}
