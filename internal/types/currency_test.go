package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	assert.Equal(t, "$", GetCurrencySymbol("usd"))
	assert.Equal(t, "$", GetCurrencySymbol("USD"))
	assert.Equal(t, "chf", GetCurrencySymbol("chf"))

	assert.True(t, IsZeroDecimalCurrency("JPY"))
	assert.False(t, IsZeroDecimalCurrency("usd"))
}
