package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDonationIDFromOrder(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		want    uint
		wantErr bool
	}{
		{name: "valid", orderID: "donation-42-1700000000", want: 42},
		{name: "no timestamp suffix", orderID: "donation-7", want: 7},
		{name: "wrong prefix", orderID: "payment-due-42-1700000000", wantErr: true},
		{name: "non-numeric id", orderID: "donation-abc-1700000000", wantErr: true},
		{name: "empty", orderID: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := donationIDFromOrder(tt.orderID)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
