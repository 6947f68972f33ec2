package swapmath

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAmountOut(t *testing.T) {
	tests := []struct {
		name        string
		amountIn    int64
		reserveIn   int64
		reserveOut  int64
		feePerMille uint64
		expected    int64
	}{
		{"reference case", 100, 1000, 2000, 30, 176},
		{"no fee", 100, 1000, 2000, 0, 181},
		{"large reserves", 1e12, 5e15, 12345e12, 30, 2394465473698},
		{"zero input", 0, 1000, 2000, 30, 0},
		{"zero input reserve", 100, 0, 2000, 30, 0},
		{"zero output reserve", 100, 1000, 0, 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AmountOut(
				big.NewInt(tt.amountIn),
				big.NewInt(tt.reserveIn),
				big.NewInt(tt.reserveOut),
				tt.feePerMille,
			)
			assert.Equal(t, big.NewInt(tt.expected), got)
		})
	}
}

// The reference formula itself is the ground truth: the engine's output must
// match an independent big.Int evaluation of
// (in*(1000-fee)*reserveOut) / (reserveIn*1000 + in*(1000-fee)) bit for bit.
func TestAmountOutMatchesReferenceFormula(t *testing.T) {
	cases := [][3]int64{
		{100, 1000, 2000},
		{1, 1, 1},
		{999999999, 123456789, 987654321},
		{5000, 300000, 70000},
	}
	const fee = 30
	for _, c := range cases {
		amountIn, reserveIn, reserveOut := c[0], c[1], c[2]

		withFee := new(big.Int).Mul(big.NewInt(amountIn), big.NewInt(1000-fee))
		num := new(big.Int).Mul(withFee, big.NewInt(reserveOut))
		den := new(big.Int).Add(
			new(big.Int).Mul(big.NewInt(reserveIn), big.NewInt(1000)),
			withFee,
		)
		expected := new(big.Int).Div(num, den)

		got := AmountOut(
			big.NewInt(amountIn), big.NewInt(reserveIn), big.NewInt(reserveOut), fee,
		)
		// assert.Equal deep-compares big.Int internals, which distinguishes the
		// nil and empty-slice representations of zero; compare the values.
		assert.Equal(t, expected.String(), got.String())
	}
}

func TestAmountOutNeverDividesByZero(t *testing.T) {
	assert.NotPanics(t, func() {
		AmountOut(big.NewInt(100), big.NewInt(0), big.NewInt(0), 30)
		AmountOut(nil, nil, nil, 30)
		AmountOut(big.NewInt(-5), big.NewInt(1000), big.NewInt(2000), 30)
		AmountOut(big.NewInt(100), big.NewInt(1000), big.NewInt(2000), 1000)
	})
}

func TestQuote(t *testing.T) {
	got := Quote(big.NewInt(500), big.NewInt(1000), big.NewInt(2000))
	assert.Equal(t, big.NewInt(250), got)

	assert.Equal(t, int64(0), Quote(big.NewInt(500), big.NewInt(1000), big.NewInt(0)).Int64())
	assert.Equal(t, int64(0), Quote(big.NewInt(0), big.NewInt(1000), big.NewInt(2000)).Int64())
}

func TestPriceImpactBps(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   int64
		reserveIn  int64
		reserveOut int64
		expected   int64
	}{
		{"small pool big trade", 100, 1000, 2000, 1732},
		{"deep pool small trade", 1e12, 5e15, 12345e12, 4},
		{"zero input", 0, 1000, 2000, 0},
		{"empty reserves", 100, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceImpactBps(
				big.NewInt(tt.amountIn), big.NewInt(tt.reserveIn), big.NewInt(tt.reserveOut),
			)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMinimumReceived(t *testing.T) {
	got := MinimumReceived(big.NewInt(176), 100)
	assert.Equal(t, big.NewInt(174), got)

	assert.Equal(t, int64(0), MinimumReceived(nil, 100).Int64())
	assert.Equal(t, int64(0), MinimumReceived(big.NewInt(176), 10000).Int64())
}

func TestDisplayConversion(t *testing.T) {
	raw := big.NewInt(1234500000000)
	display := ToDisplay(raw, 12)
	assert.Equal(t, "1.2345", display.String())

	back := FromDisplay(display, 12)
	assert.Equal(t, raw, back)

	truncated := FromDisplay(decimal.RequireFromString("0.1234567891239"), 12)
	assert.Equal(t, big.NewInt(123456789123), truncated)
}
