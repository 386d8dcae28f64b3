package entity

import (
	"slices"
	"time"
)

// DonationStatus is the lifecycle state of a donation.
type DonationStatus string

const (
	DonationPending                DonationStatus = "pending"
	DonationAssigned               DonationStatus = "assigned"
	DonationCollected              DonationStatus = "collected"
	DonationDelivered              DonationStatus = "delivered"
	DonationExpired                DonationStatus = "expired"
	DonationAwaitingBiogasApproval DonationStatus = "awaiting_biogas_approval"
	DonationBiogasApproved         DonationStatus = "biogas_approved"
	DonationDriverAccepted         DonationStatus = "driver_accepted"
)

// AllDonationStatuses lists every status in lifecycle order.
var AllDonationStatuses = []DonationStatus{
	DonationPending,
	DonationAssigned,
	DonationCollected,
	DonationDelivered,
	DonationExpired,
	DonationAwaitingBiogasApproval,
	DonationBiogasApproved,
	DonationDriverAccepted,
}

func (s DonationStatus) IsValid() bool {
	return slices.Contains(AllDonationStatuses, s)
}

// FoodCondition is the donor's description of edible food.
type FoodCondition string

const (
	FoodFresh  FoodCondition = "fresh"
	FoodGood   FoodCondition = "good"
	FoodStaple FoodCondition = "staple"
)

// WasteCondition describes food offered as waste.
type WasteCondition string

const (
	WasteEdible   WasteCondition = "edible"
	WasteInedible WasteCondition = "inedible"
)

// DonationKind discriminates the donation variants.
type DonationKind string

const (
	KindRegular DonationKind = "regular"
	KindWaste   DonationKind = "waste"
)

// DonationInfo holds the attributes shared by every donation variant.
type DonationInfo struct {
	ID          string         `json:"id"`
	FoodName    string         `json:"foodName"`
	FoodType    string         `json:"foodType"`
	Quantity    string         `json:"quantity"`
	Condition   FoodCondition  `json:"condition,omitempty"`
	Description string         `json:"description,omitempty"`
	Address     string         `json:"address"`
	Latitude    *float64       `json:"latitude,omitempty"`
	Longitude   *float64       `json:"longitude,omitempty"`
	DonorID     string         `json:"donorId"`
	DonorName   string         `json:"donorName"`
	CreatedAt   time.Time      `json:"createdAt"`
	ExpiryDate  *time.Time     `json:"expiryDate,omitempty"`
	Status      DonationStatus `json:"status"`
	Version     int64          `json:"version"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// HasLocation reports whether both coordinates are set.
func (d *DonationInfo) HasLocation() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// IsPastExpiry reports whether the expiry date lies before now.
func (d *DonationInfo) IsPastExpiry(now time.Time) bool {
	return d.ExpiryDate != nil && d.ExpiryDate.Before(now)
}

// Donation is either a *RegularDonation or a *WasteDonation.
type Donation interface {
	Info() *DonationInfo
	Kind() DonationKind
	Clone() Donation
	isDonation()
}

// RegularDonation is edible food offered to NGOs.
type RegularDonation struct {
	DonationInfo
	AssignedTo  string `json:"assignedTo,omitempty"`
	CollectedBy string `json:"collectedBy,omitempty"`
}

func (d *RegularDonation) Info() *DonationInfo { return &d.DonationInfo }
func (d *RegularDonation) Kind() DonationKind  { return KindRegular }
func (d *RegularDonation) isDonation()         {}

func (d *RegularDonation) Clone() Donation {
	cloned := *d
	cloned.DonationInfo = d.DonationInfo.clone()

	return &cloned
}

// WasteDonation is food routed to a biogas plant.
type WasteDonation struct {
	DonationInfo
	WasteCondition  WasteCondition `json:"wasteCondition"`
	BiogasPlantID   string         `json:"biogasPlantId,omitempty"`
	BiogasPlantName string         `json:"biogasPlantName,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewedAt,omitempty"`
	DriverID        string         `json:"driverId,omitempty"`
	DriverName      string         `json:"driverName,omitempty"`
	AcceptedAt      *time.Time     `json:"acceptedAt,omitempty"`
	PickedUpAt      *time.Time     `json:"pickedUpAt,omitempty"`
	DeliveredAt     *time.Time     `json:"deliveredAt,omitempty"`
	// RedirectedFrom is the collection whose failed freshness check produced this record.
	RedirectedFrom string `json:"redirectedFrom,omitempty"`
}

func (d *WasteDonation) Info() *DonationInfo { return &d.DonationInfo }
func (d *WasteDonation) Kind() DonationKind  { return KindWaste }
func (d *WasteDonation) isDonation()         {}

func (d *WasteDonation) Clone() Donation {
	cloned := *d
	cloned.DonationInfo = d.DonationInfo.clone()
	cloned.ReviewedAt = cloneTime(d.ReviewedAt)
	cloned.AcceptedAt = cloneTime(d.AcceptedAt)
	cloned.PickedUpAt = cloneTime(d.PickedUpAt)
	cloned.DeliveredAt = cloneTime(d.DeliveredAt)

	return &cloned
}

// AsRegular returns d as a regular donation when it is one.
func AsRegular(d Donation) (*RegularDonation, bool) {
	regular, ok := d.(*RegularDonation)

	return regular, ok
}

// AsWaste returns d as a waste donation when it is one.
func AsWaste(d Donation) (*WasteDonation, bool) {
	waste, ok := d.(*WasteDonation)

	return waste, ok
}

func (d DonationInfo) clone() DonationInfo {
	if d.Latitude != nil {
		lat := *d.Latitude
		d.Latitude = &lat
	}
	if d.Longitude != nil {
		lng := *d.Longitude
		d.Longitude = &lng
	}
	d.ExpiryDate = cloneTime(d.ExpiryDate)

	return d
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t

	return &v
}

// DonationDraft is the donor input for a new donation.
type DonationDraft struct {
	Kind           DonationKind
	FoodName       string
	FoodType       string
	Quantity       string
	Condition      FoodCondition
	WasteCondition WasteCondition
	Description    string
	Address        string
	Latitude       *float64
	Longitude      *float64
	ExpiryDate     *time.Time
}
