package entity

import "time"

// CollectionStatus is the state of an NGO's pickup request.
type CollectionStatus string

const (
	CollectionRequested CollectionStatus = "requested"
	CollectionAssigned  CollectionStatus = "assigned"
	CollectionInTransit CollectionStatus = "in-transit"
	CollectionCompleted CollectionStatus = "completed"
	CollectionCancelled CollectionStatus = "cancelled"
)

// Collection is an NGO's claim on a donation, later served by a driver.
type Collection struct {
	ID         string           `json:"id"`
	DonationID string           `json:"donationId"`
	NGOID      string           `json:"ngoId"`
	NGOName    string           `json:"ngoName"`
	DriverID   string           `json:"driverId,omitempty"`
	DriverName string           `json:"driverName,omitempty"`
	PickupTime time.Time        `json:"pickupTime"`
	Notes      string           `json:"notes,omitempty"`
	Status     CollectionStatus `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	VerificationPhotoID    string             `json:"verificationPhotoId,omitempty"`
	VerificationResult     FreshnessCondition `json:"verificationResult,omitempty"`
	VerificationConfidence float64            `json:"verificationConfidence,omitempty"`
	VerifiedAt             *time.Time         `json:"verifiedAt,omitempty"`
	// Redirected marks a collection cancelled because its food went to biogas.
	Redirected bool `json:"redirected,omitempty"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsActive reports whether the collection still binds its donation.
func (c *Collection) IsActive() bool {
	return c.Status != CollectionCancelled
}

// HasDriver reports whether a driver has taken the collection.
func (c *Collection) HasDriver() bool {
	return c.DriverID != ""
}

// Clone returns a deep copy.
func (c *Collection) Clone() *Collection {
	cloned := *c
	cloned.CompletedAt = cloneTime(c.CompletedAt)
	cloned.CancelledAt = cloneTime(c.CancelledAt)
	cloned.VerifiedAt = cloneTime(c.VerifiedAt)

	return &cloned
}
