package qrcode

import (
	"encoding/json"

	"foodbridge/config"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"

	"github.com/skip2/go-qrcode"
)

const (
	pickupType  = "pickup"
	defaultSize = 256
)

var recoveryLevels = map[string]qrcode.RecoveryLevel{
	"L": qrcode.Low,
	"M": qrcode.Medium,
	"Q": qrcode.High,
	"H": qrcode.Highest,
}

type qrcodeService struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewQRCodeService builds pickup codes of size pixels. Unknown recovery
// levels fall back to "M".
func NewQRCodeService(size int, recoveryLevel string) service.QRCodeService {
	level, ok := recoveryLevels[recoveryLevel]
	if !ok {
		level = qrcode.Medium
	}
	if size <= 0 {
		size = defaultSize
	}

	return &qrcodeService{size: size, level: level}
}

func NewQRCodeServiceFromConfig(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		return NewQRCodeService(defaultSize, "M")
	}

	return NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

// GeneratePickupQR renders {collection_id, donation_id, type:"pickup"} as a PNG.
func (s *qrcodeService) GeneratePickupQR(collectionID, donationID string) ([]byte, error) {
	if collectionID == "" || donationID == "" {
		return nil, errors.New("pickup qr: collection and donation ids are required")
	}

	payload, err := json.Marshal(service.PickupCode{
		CollectionID: collectionID,
		DonationID:   donationID,
		Type:         pickupType,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	png, err := qrcode.Encode(string(payload), s.level, s.size)
	if err != nil {
		return nil, errors.Wrap(err, "pickup qr: encode png")
	}

	return png, nil
}

// ParsePickupQR decodes a scanned pickup payload.
func (s *qrcodeService) ParsePickupQR(qrData string) (*service.PickupCode, error) {
	var code service.PickupCode
	if err := json.Unmarshal([]byte(qrData), &code); err != nil {
		return nil, errors.Wrap(err, "pickup qr: decode payload")
	}

	switch {
	case code.Type != pickupType:
		return nil, errors.Errorf("pickup qr: unexpected type %q", code.Type)
	case code.CollectionID == "" || code.DonationID == "":
		return nil, errors.New("pickup qr: missing collection or donation id")
	}

	return &code, nil
}
