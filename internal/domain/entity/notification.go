// Package entity contains the core business objects of the project.
package entity

import "time"

// NotificationType classifies an in-app notification.
type NotificationType string

const (
	NotificationFoodCondition        NotificationType = "food_condition"
	NotificationRouteChange          NotificationType = "route_change"
	NotificationPickupRequest        NotificationType = "pickup_request"
	NotificationDeliveryConfirmation NotificationType = "delivery_confirmation"
	NotificationDonationClaimed      NotificationType = "donation_claimed"
	NotificationDriverAssigned       NotificationType = "driver_assigned"
	NotificationWasteApproved        NotificationType = "waste_approved"
	NotificationWasteAccepted        NotificationType = "waste_accepted"
	NotificationDonationExpired      NotificationType = "donation_expired"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
	Read      bool             `json:"read"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

// Clone returns a copy whose metadata map is not shared.
func (n *Notification) Clone() *Notification {
	cloned := *n
	if n.Metadata != nil {
		cloned.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			cloned.Metadata[k] = v
		}
	}

	return &cloned
}
