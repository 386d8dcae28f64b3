// Package constants holds configuration values shared across layers.
package constants

// Environment names
const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)

// Pub/Sub providers
const (
	PubSubProviderNoop   = "noop"
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Key-value store backends
const (
	StoreBackendMemory   = "memory"
	StoreBackendSQLite   = "sqlite"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

// Storage keys of the record lists.
const (
	KeyDonations   = "foodbridge-donations"
	KeyCollections = "foodbridge-collections"
	KeyUsers       = "registered-users"
	KeyImages      = "foodbridge-images"
	KeyDevices     = "foodbridge-devices"
)

// Auth cookies
const (
	CookieAuthToken = "auth-token"
	CookieUserEmail = "user-email"
	CookieUserRole  = "user-role"
)
