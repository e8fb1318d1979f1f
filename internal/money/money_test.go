package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromMajor(t *testing.T) {
	assert.Equal(t, Amount(50000), FromMajor(500))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		amount Amount
		want   string
	}{
		{name: "whole", amount: 50000, want: "500.00 RUB"},
		{name: "with kopecks", amount: 50150, want: "501.50 RUB"},
		{name: "sub-ruble", amount: 99, want: "0.99 RUB"},
		{name: "zero", amount: 0, want: "0.00 RUB"},
		{name: "negative", amount: -12345, want: "-123.45 RUB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.amount.Format("RUB"))
		})
	}
}

func TestGatewayValue(t *testing.T) {
	assert.Equal(t, "500.00", Amount(50000).GatewayValue())
	assert.Equal(t, "0.05", Amount(5).GatewayValue())
}

func TestIsPositive(t *testing.T) {
	assert.True(t, Amount(1).IsPositive())
	assert.False(t, Amount(0).IsPositive())
	assert.False(t, Amount(-1).IsPositive())
}
