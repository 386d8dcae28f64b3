package entity

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Valid reports whether the point lies in the WGS84 range.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// GeocodeResult is a resolved address.
type GeocodeResult struct {
	Coordinates
	DisplayName string `json:"displayName"`
	Provider    string `json:"provider"`
}

// NearbyDonation is an available donation with its distance from a point.
type NearbyDonation struct {
	Donation   *RegularDonation `json:"donation"`
	DistanceKm float64          `json:"distanceKm"`
}
