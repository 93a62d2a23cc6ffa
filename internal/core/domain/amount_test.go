package domain_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "whole", input: "100", want: "100.00"},
		{name: "two fractional digits", input: "-40.25", want: "-40.25"},
		{name: "trailing zeros are exact", input: "1.500", want: "1.50"},
		{name: "one cent", input: "0.01", want: "0.01"},
		{name: "sub-cent loses precision", input: "0.001", wantErr: apperrors.ErrPrecision},
		{name: "too many integer digits", input: "10000000000000000000000", wantErr: apperrors.ErrPrecision},
		{name: "garbage", input: "abc", wantErr: apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseAmount(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmount_HugeExponentsFailFast(t *testing.T) {
	tests := []struct {
		input   string
		wantErr error
	}{
		{input: "1e20000000", wantErr: apperrors.ErrPrecision},
		{input: "1e-20000000", wantErr: apperrors.ErrPrecision},
		{input: "-7e2000000", wantErr: apperrors.ErrPrecision},
		{input: "123456789e-2000000", wantErr: apperrors.ErrPrecision},
		{input: strings.Repeat("9", 100), wantErr: apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.input[:min(len(tt.input), 20)], func(t *testing.T) {
			start := time.Now()
			_, err := domain.ParseAmount(tt.input)
			assert.Less(t, time.Since(start), time.Second)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Less(t, len(err.Error()), 200)
		})
	}

	zero, err := domain.ParseAmount("0e-20000000")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	ok, err := domain.ParseAmount("15e-1")
	require.NoError(t, err)
	assert.Equal(t, "1.50", ok.String())
}

func TestNewAmount_HugeExponent(t *testing.T) {
	start := time.Now()
	_, err := domain.NewAmount(decimal.New(1, 20000000))
	assert.ErrorIs(t, err, apperrors.ErrPrecision)
	_, err = domain.NewAmount(decimal.New(5, -20000000))
	assert.ErrorIs(t, err, apperrors.ErrPrecision)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAmount_Arithmetic(t *testing.T) {
	a := domain.MustParseAmount("100.10")
	b := domain.MustParseAmount("0.20")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(domain.MustParseAmount("100.30")))

	diff, err := b.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, "-99.90", diff.String())
	assert.True(t, diff.IsNegative())
	assert.Equal(t, -1, diff.Sign())
	assert.True(t, diff.Neg().Equal(domain.MustParseAmount("99.90")))
	assert.True(t, b.LessThan(a))
	assert.Equal(t, 1, a.Cmp(b))
}

func TestAmount_AddOverflow(t *testing.T) {
	big := domain.MustParseAmount("9999999999999999999999.99")
	_, err := big.Add(domain.AmountFromCents(1))
	assert.ErrorIs(t, err, apperrors.ErrPrecision)
}

func TestAmount_NoFloatDrift(t *testing.T) {
	// 0.1 + 0.2 famously drifts in binary floating point.
	sum, err := domain.SumAmounts(domain.MustParseAmount("0.1"), domain.MustParseAmount("0.2"))
	require.NoError(t, err)
	assert.True(t, sum.Equal(domain.MustParseAmount("0.3")))
}

func TestAmount_Constructors(t *testing.T) {
	assert.Equal(t, "100.00", domain.AmountFromUnits(100).String())
	assert.Equal(t, "0.01", domain.AmountFromCents(1).String())
	assert.True(t, domain.ZeroAmount.IsZero())
	assert.True(t, domain.Amount{}.IsZero())

	_, err := domain.NewAmount(decimal.RequireFromString("1.234"))
	assert.ErrorIs(t, err, apperrors.ErrPrecision)
}

func TestAmount_JSON(t *testing.T) {
	var payload struct {
		Amount domain.Amount `json:"amount"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "12.50"}`), &payload))
	assert.Equal(t, "12.50", payload.Amount.String())

	require.NoError(t, json.Unmarshal([]byte(`{"amount": 7.1}`), &payload))
	assert.Equal(t, "7.10", payload.Amount.String())

	err := json.Unmarshal([]byte(`{"amount": "0.005"}`), &payload)
	assert.ErrorIs(t, err, apperrors.ErrPrecision)

	err = json.Unmarshal([]byte(`{"amount": 1e20000000}`), &payload)
	assert.ErrorIs(t, err, apperrors.ErrPrecision)
	assert.Less(t, len(err.Error()), 200)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": "7.10"}`, string(out))
}

func TestAmount_ScanValue(t *testing.T) {
	var a domain.Amount
	require.NoError(t, a.Scan("150.00"))
	assert.Equal(t, "150.00", a.String())

	require.NoError(t, a.Scan([]byte("-3.5")))
	assert.Equal(t, "-3.50", a.String())

	assert.ErrorIs(t, a.Scan("1.999"), apperrors.ErrPrecision)

	v, err := domain.MustParseAmount("42").Value()
	require.NoError(t, err)
	assert.Equal(t, "42.00", v)
}
