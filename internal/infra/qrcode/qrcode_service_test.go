package qrcode

import (
	"encoding/json"
	"testing"

	"foodbridge/config"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQRCodeService(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		level     string
		wantSize  int
		wantLevel qrcode.RecoveryLevel
	}{
		{"low", 128, "L", 128, qrcode.Low},
		{"quartile", 256, "Q", 256, qrcode.High},
		{"highest", 256, "H", 256, qrcode.Highest},
		{"unknown level", 256, "invalid", 256, qrcode.Medium},
		{"default size", 0, "M", defaultSize, qrcode.Medium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ok := NewQRCodeService(tt.size, tt.level).(*qrcodeService)
			require.True(t, ok)
			assert.Equal(t, tt.wantSize, svc.size)
			assert.Equal(t, tt.wantLevel, svc.level)
		})
	}
}

func TestQRCodeService_GeneratePickupQR(t *testing.T) {
	service := NewQRCodeServiceFromConfig(&config.Config{})

	qrBytes, err := service.GeneratePickupQR("col_1_abcdef", "don_1_abcdef")
	require.NoError(t, err)
	require.Greater(t, len(qrBytes), 4)

	// PNG magic number
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, qrBytes[:4])
}

func TestQRCodeService_GeneratePickupQR_MissingIDs(t *testing.T) {
	service := NewQRCodeService(128, "M")

	_, err := service.GeneratePickupQR("", "don_1")
	assert.Error(t, err)
}

func TestQRCodeService_ParsePickupQR(t *testing.T) {
	service := NewQRCodeService(256, "M")

	valid, _ := json.Marshal(map[string]string{
		"collection_id": "col_1",
		"donation_id":   "don_1",
		"type":          "pickup",
	})

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid pickup code", string(valid), false},
		{"wrong type", `{"collection_id":"col_1","donation_id":"don_1","type":"subscription"}`, true},
		{"missing donation", `{"collection_id":"col_1","type":"pickup"}`, true},
		{"not json", "plain text", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := service.ParsePickupQR(tt.data)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, "col_1", code.CollectionID)
			assert.Equal(t, "don_1", code.DonationID)
		})
	}
}
