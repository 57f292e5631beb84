package money_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dotk/api/internal/money"
)

func TestParseRupees(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"₹12,34,567", 123456700},
		{"1234567", 123456700},
		{"12345.67", 1234567},
		{"12.5", 1250},
		{"₹ 1,00,000", 10000000},
		{"0", 0},
	}

	for _, tc := range cases {
		got, err := money.ParseRupees(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRupeesRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12.345", "-5", "₹", "1.2.3", "12.-5", "12.+5", "12."} {
		_, err := money.ParseRupees(in)
		require.ErrorIs(t, err, money.ErrInvalidAmount, in)
	}
}

func TestFormatPaise(t *testing.T) {
	require.Equal(t, "₹12.35 Lakh", money.FormatPaise(123456700))
	require.Equal(t, "₹2.50 Cr", money.FormatPaise(2500000000))
	require.Equal(t, "₹99,999", money.FormatPaise(9999900))
	require.Equal(t, "₹500", money.FormatPaise(50000))
}

func TestFormatHandlesMissingValue(t *testing.T) {
	require.Equal(t, "Not specified", money.Format(nil))

	var zero int64
	require.Equal(t, "Not specified", money.Format(&zero))

	v := int64(123456700)
	require.Equal(t, "₹12.35 Lakh", money.Format(&v))
}

// The admin UI sends back the same string it received; storage in paise
// must survive that loop without drift.
func TestMinorUnitRoundTrip(t *testing.T) {
	paise, err := money.ParseRupees("₹12,34,567")
	require.NoError(t, err)
	require.Equal(t, int64(123456700), paise)
	require.Equal(t, "₹12.35 Lakh", money.FormatPaise(paise))
}
