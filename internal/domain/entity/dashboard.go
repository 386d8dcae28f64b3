package entity

// DonorDashboard summarises a donor's own donations.
type DonorDashboard struct {
	Donations []Donation `json:"donations"`
	Total     int        `json:"total"`
	Pending   int        `json:"pending"`
	Delivered int        `json:"delivered"`
}

// NGODashboard summarises an NGO's collections and what it can still claim.
type NGODashboard struct {
	Collections        []*Collection      `json:"collections"`
	AvailableDonations []*RegularDonation `json:"availableDonations"`
	Total              int                `json:"total"`
	Pending            int                `json:"pending"`
	Completed          int                `json:"completed"`
}

type DriverDashboard struct {
	AssignedCollections  []*Collection    `json:"assignedCollections"`
	AvailableCollections []*Collection    `json:"availableCollections"`
	WastePickups         []*WasteDonation `json:"wastePickups"`
	Total                int              `json:"total"`
	Pending              int              `json:"pending"`
	Completed            int              `json:"completed"`
}

type BiogasDashboard struct {
	IncomingWaste []*WasteDonation `json:"incomingWaste"`
	Approved      []*WasteDonation `json:"approved"`
	Delivered     int              `json:"delivered"`
}

// AdminStats are the platform-wide counters on the admin overview.
type AdminStats struct {
	UsersByRole          map[Role]int           `json:"usersByRole"`
	TotalUsers           int                    `json:"totalUsers"`
	DonationsByStatus    map[DonationStatus]int `json:"donationsByStatus"`
	TotalDonations       int                    `json:"totalDonations"`
	TotalCollections     int                    `json:"totalCollections"`
	CompletedCollections int                    `json:"completedCollections"`
	PendingVerifications int                    `json:"pendingVerifications"`
}

// EnrichedCollection is a collection joined with its donation for the admin view.
type EnrichedCollection struct {
	*Collection
	FoodName  string `json:"foodName"`
	Condition string `json:"condition"`
	DonorName string `json:"donorName"`
	Address   string `json:"address"`
}
