package values

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("123.45", "usd")
	require.NoError(t, err)
	assert.Equal(t, "123.45 USD", m.String())
	assert.True(t, m.IsPositive())

	_, err = NewMoneyFromString("not-a-number", USD)
	assert.Error(t, err)

	_, err = NewMoneyFromString("10", "XXX")
	assert.Error(t, err, "unsupported currency must be rejected")

	_, err = NewMoneyFromString("10", "")
	assert.Error(t, err)
}

func TestMoneyComparison(t *testing.T) {
	low := MustNewMoneyFromString("100", USD)
	high := MustNewMoneyFromString("150", USD)

	assert.True(t, high.GreaterThan(low))
	assert.True(t, low.LessThan(high))
	assert.Equal(t, 0, low.Compare(MustNewMoneyFromString("100.00", USD)))
	assert.True(t, low.Equal(MustNewMoneyFromString("100.0", USD)))

	assert.Panics(t, func() {
		low.Compare(MustNewMoneyFromString("100", EUR))
	})
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustNewMoneyFromString("10.50", USD)
	b := MustNewMoneyFromString("4.25", USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(MustNewMoneyFromString("14.75", USD)))

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Equal(MustNewMoneyFromString("6.25", USD)))

	_, err = a.Add(MustNewMoneyFromString("1", GBP))
	assert.Error(t, err, "currency mismatch must be rejected")

	doubled := a.Mul(decimal.NewFromInt(2))
	assert.True(t, doubled.Equal(MustNewMoneyFromString("21.00", USD)))
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := MustNewMoneyFromString("1050.00", USD)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1050","currency":"USD"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(back))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan([]byte("500.0000")))
	assert.True(t, m.Equal(MustNewMoneyFromString("500", USD)))

	require.NoError(t, m.Scan("42.50"))
	assert.True(t, m.Equal(MustNewMoneyFromString("42.50", USD)))

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(12345))
}

func TestMoneyValue(t *testing.T) {
	m := MustNewMoneyFromString("99.99", USD)
	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "99.99", v)

	var zero Money
	v, err = zero.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
