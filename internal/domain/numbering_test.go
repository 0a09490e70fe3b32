package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderNumberPrefix(t *testing.T) {
	now := time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "PO202503", OrderNumberPrefix(OrderKindPurchase, now))
	assert.Equal(t, "SO202503", OrderNumberPrefix(OrderKindSales, now))
}

func TestNextOrderNumber(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		max     string
		want    string
		wantErr bool
	}{
		{name: "first of month", prefix: "PO202503", max: "", want: "PO2025030001"},
		{name: "increment", prefix: "PO202503", max: "PO2025030041", want: "PO2025030042"},
		{name: "carry", prefix: "SO202512", max: "SO2025120999", want: "SO2025121000"},
		{name: "exhausted", prefix: "SO202512", max: "SO2025129999", wantErr: true},
		{name: "foreign prefix", prefix: "PO202503", max: "PO2025020007", wantErr: true},
		{name: "malformed", prefix: "PO202503", max: "PO202503ABCD", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOrderNumber(tt.prefix, tt.max)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsOrderNumber(got))
		})
	}
}

func TestNextOrderNumberIsStable(t *testing.T) {
	first, err := NextOrderNumber("PO202503", "PO2025030003")
	require.NoError(t, err)
	second, err := NextOrderNumber("PO202503", "PO2025030003")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIsOrderNumber(t *testing.T) {
	assert.True(t, IsOrderNumber("PO2025030001"))
	assert.True(t, IsOrderNumber("SO2024121234"))
	assert.False(t, IsOrderNumber("SO2025-001"))
	assert.False(t, IsOrderNumber("XO2025030001"))
	assert.False(t, IsOrderNumber("PO20250300011"))
}
