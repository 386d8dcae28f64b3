package service

// PickupCode is the payload of the QR code a driver scans at pickup.
type PickupCode struct {
	CollectionID string `json:"collection_id"`
	DonationID   string `json:"donation_id"`
	Type         string `json:"type"`
}

// QRCodeService defines the interface for QR code generation and parsing services
type QRCodeService interface {
	// GeneratePickupQR renders the pickup code of a collection as PNG.
	GeneratePickupQR(collectionID, donationID string) ([]byte, error)

	// ParsePickupQR parses scanned QR code data.
	ParsePickupQR(qrData string) (*PickupCode, error)
}
