package money_test

import (
	"testing"

	"github.com/shopmini/paycore/internal/domain/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt_AcceptsIntegralForms(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want int64
	}{
		{"int64", int64(500), 500},
		{"int", 500, 500},
		{"float64 integral", 500.0, 500},
		{"string digits", "500", 500},
		{"string with comma decimal zero", "500,00", 500},
		{"string with surrounding whitespace", "  500  ", 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := money.ParseInt(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseInt_RejectsFractionalOrMalformed(t *testing.T) {
	cases := []any{500.5, "500.5", "not-a-number", "", nil}
	for _, in := range cases {
		_, err := money.ParseInt(in)
		assert.ErrorIs(t, err, money.ErrInvalidAmount)
	}
}

func TestSumTiyinRoundTrip(t *testing.T) {
	assert.Equal(t, int64(150000), money.SumToTiyin(1500))
	assert.Equal(t, int64(1500), money.TiyinToSum(150000))
	assert.Equal(t, int64(1500), money.TiyinToSum(150099))
}
