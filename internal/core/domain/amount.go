package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits every Amount carries.
// It matches the NUMERIC(24,2) columns of the ledger tables.
const AmountScale = 2

// maxIntegerDigits is the 24 digit precision minus the scale.
const maxIntegerDigits = 22

var amountLimit = decimal.New(1, maxIntegerDigits)

// Amount is a signed, fixed-scale count of currency units.
// The zero value is a valid zero amount. Amounts never hold floats and never round.
type Amount struct {
	value decimal.Decimal
}

// ZeroAmount is the balance of a fresh account.
var ZeroAmount = Amount{value: decimal.Zero}

// maxLiteralLength bounds amount literals before they reach the decimal parser.
const maxLiteralLength = 64

// NewAmount validates d against the ledger scale. A value that would need
// rounding or more than 22 integer digits fails with a PrecisionError.
// The exponent is checked before any rescaling so 1e20000000 fails fast.
func NewAmount(d decimal.Decimal) (Amount, error) {
	if d.IsZero() {
		return ZeroAmount, nil
	}
	exp := int64(d.Exponent())
	digits := int64(d.NumDigits())
	if exp+digits > maxIntegerDigits {
		return Amount{}, apperrors.NewPrecisionError(describeDecimal(d), fmt.Sprintf("more than %d integer digits", maxIntegerDigits))
	}
	// A nonzero coefficient of n digits has fewer than n trailing zeros.
	if exp < -AmountScale-digits {
		return Amount{}, apperrors.NewPrecisionError(describeDecimal(d), fmt.Sprintf("more than %d fractional digits", AmountScale))
	}

	fixed := d.Round(AmountScale)
	if !fixed.Equal(d) {
		return Amount{}, apperrors.NewPrecisionError(describeDecimal(d), fmt.Sprintf("more than %d fractional digits", AmountScale))
	}
	if fixed.Abs().Cmp(amountLimit) >= 0 {
		return Amount{}, apperrors.NewPrecisionError(describeDecimal(d), fmt.Sprintf("more than %d integer digits", maxIntegerDigits))
	}
	return Amount{value: fixed}, nil
}

// describeDecimal renders d without expanding large exponents.
func describeDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < -40 || exp > 40 {
		return fmt.Sprintf("%se%d", d.Coefficient().String(), exp)
	}
	return d.String()
}

// ParseAmount parses a decimal literal such as "100", "-40.5" or "0.01".
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxLiteralLength {
		return Amount{}, fmt.Errorf("%w: amount literal longer than %d characters", apperrors.ErrValidation, maxLiteralLength)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: invalid amount %q", apperrors.ErrValidation, s)
	}
	return NewAmount(d)
}

// MustParseAmount is ParseAmount for literals known to be valid. It panics otherwise.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromUnits returns a whole number of units, e.g. AmountFromUnits(100) is 100.00.
func AmountFromUnits(units int64) Amount {
	return Amount{value: decimal.New(units, 0).Round(AmountScale)}
}

// AmountFromCents returns cents/100 units, e.g. AmountFromCents(1) is 0.01.
func AmountFromCents(cents int64) Amount {
	return Amount{value: decimal.New(cents, -AmountScale)}
}

// Add returns a+b, failing if the sum leaves the representable range.
func (a Amount) Add(b Amount) (Amount, error) { return NewAmount(a.value.Add(b.value)) }

// Sub returns a-b, failing if the difference leaves the representable range.
func (a Amount) Sub(b Amount) (Amount, error) { return NewAmount(a.value.Sub(b.value)) }

func (a Amount) Neg() Amount                  { return Amount{value: a.value.Neg()} }
func (a Amount) Cmp(b Amount) int             { return a.value.Cmp(b.value) }
func (a Amount) Equal(b Amount) bool          { return a.value.Equal(b.value) }
func (a Amount) LessThan(b Amount) bool       { return a.value.LessThan(b.value) }
func (a Amount) Sign() int                    { return a.value.Sign() }
func (a Amount) IsZero() bool                 { return a.value.IsZero() }
func (a Amount) IsPositive() bool             { return a.value.IsPositive() }
func (a Amount) IsNegative() bool             { return a.value.IsNegative() }
func (a Amount) Decimal() decimal.Decimal     { return a.value }
func (a Amount) String() string               { return a.value.StringFixed(AmountScale) }
func (a Amount) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// MarshalJSON encodes the amount as a JSON string so clients never see a float.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON string or a JSON number literal. The literal is
// parsed as decimal text, never through float64.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return fmt.Errorf("%w: amount is required", apperrors.ErrValidation)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// UnmarshalText is used by flag and form decoding.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	parsed, err := NewAmount(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer. Amounts are sent as decimal text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// SumAmounts folds amounts starting at zero.
func SumAmounts(amounts ...Amount) (Amount, error) {
	sum := ZeroAmount
	for _, amt := range amounts {
		var err error
		if sum, err = sum.Add(amt); err != nil {
			return Amount{}, err
		}
	}
	return sum, nil
}
