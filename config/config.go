package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "10MB"
	defaultMaxValueBytes      = 4 * 1024 * 1024
	defaultTokenTTL           = 7 * 24 * time.Hour
	defaultTransactionRetries = 3
	defaultWorkerPort         = 8081
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
		// SecureCookies marks auth cookies Secure; forced on in production.
		SecureCookies bool `json:"secureCookies" yaml:"secureCookies"`
	} `json:"http" yaml:"http"`

	SecretKey struct {
		Access      string `json:"access" yaml:"access"`
		CookieHash  string `json:"cookieHash" yaml:"cookieHash"`
		CookieBlock string `json:"cookieBlock" yaml:"cookieBlock"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Store selects and tunes the key-value store backend.
	Store *StoreConfig `json:"store" yaml:"store"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// PubSub configuration for notification event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	// Firebase configuration for push notifications
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	Mail *MailConfig `json:"mail" yaml:"mail"`

	Images *ImagesConfig `json:"images" yaml:"images"`

	Freshness *FreshnessConfig `json:"freshness" yaml:"freshness"`

	Geocoding *GeocodingConfig `json:"geocoding" yaml:"geocoding"`

	// QRCode configuration for pickup codes
	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`

	Lifecycle *LifecycleConfig `json:"lifecycle" yaml:"lifecycle"`

	// Worker configures the notification worker process.
	Worker *WorkerConfig `json:"worker" yaml:"worker"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost int           `json:"bcryptCost" yaml:"bcryptCost"`
	TokenTTL   time.Duration `json:"tokenTtl" yaml:"tokenTtl"`
	// Admin is created on startup when no user with its email exists.
	Admin *AdminSeedConfig `json:"admin" yaml:"admin"`
}

type AdminSeedConfig struct {
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// StoreConfig defines the key-value store backend and its eviction policy.
type StoreConfig struct {
	// Backend is one of memory, sqlite, postgres, redis.
	Backend string `json:"backend" yaml:"backend"`

	// MaxValueBytes is the encoded size above which a record list is evicted.
	MaxValueBytes int `json:"maxValueBytes" yaml:"maxValueBytes"`

	// QuotaBytes caps the total bytes held by the backend; 0 means unlimited.
	QuotaBytes int64 `json:"quotaBytes" yaml:"quotaBytes"`

	// TransactionRetries bounds the retries of a transaction on version conflict.
	TransactionRetries int `json:"transactionRetries" yaml:"transactionRetries"`

	// SeedSampleData stores the sample donations when none exist.
	SeedSampleData bool `json:"seedSampleData" yaml:"seedSampleData"`

	// Retention overrides the per-key retention policy, keyed by storage key.
	Retention map[string]RetentionConfig `json:"retention" yaml:"retention"`

	SQLite struct {
		Path string `json:"path" yaml:"path"`
	} `json:"sqlite" yaml:"sqlite"`

	Redis struct {
		Addr      string `json:"addr" yaml:"addr"`
		Password  string `json:"password" yaml:"password"`
		DB        int    `json:"db" yaml:"db"`
		KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
	} `json:"redis" yaml:"redis"`
}

// RetentionConfig mirrors kvstore.Retention for configuration files.
type RetentionConfig struct {
	MaxRecords   int `json:"maxRecords" yaml:"maxRecords"`
	EvictTo      int `json:"evictTo" yaml:"evictTo"`
	QuotaEvictTo int `json:"quotaEvictTo" yaml:"quotaEvictTo"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

// FirebaseConfig defines Firebase configuration for push notifications
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// MailConfig defines the SMTP relay used for e-mail copies of notifications.
type MailConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
}

type ImagesConfig struct {
	// BucketURL is a gocloud blob URL, e.g. mem://, file:///var/lib/foodbridge/images, s3://bucket.
	BucketURL     string `json:"bucketUrl" yaml:"bucketUrl"`
	ThumbnailSize int    `json:"thumbnailSize" yaml:"thumbnailSize"`
}

type FreshnessConfig struct {
	MLServerURL string        `json:"mlServerUrl" yaml:"mlServerUrl"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Claude      struct {
		APIKey    string `json:"apiKey" yaml:"apiKey"`
		Model     string `json:"model" yaml:"model"`
		MaxTokens int    `json:"maxTokens" yaml:"maxTokens"`
	} `json:"claude" yaml:"claude"`
}

type GeocodingConfig struct {
	OpenRouteServiceURL string        `json:"openRouteServiceUrl" yaml:"openRouteServiceUrl"`
	OpenRouteServiceKey string        `json:"openRouteServiceKey" yaml:"openRouteServiceKey"`
	NominatimURL        string        `json:"nominatimUrl" yaml:"nominatimUrl"`
	UserAgent           string        `json:"userAgent" yaml:"userAgent"`
	Timeout             time.Duration `json:"timeout" yaml:"timeout"`
	DefaultRadiusKm     float64       `json:"defaultRadiusKm" yaml:"defaultRadiusKm"`
	MaxRadiusKm         float64       `json:"maxRadiusKm" yaml:"maxRadiusKm"`
}

// QRCodeConfig defines QR code generation configuration
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
}

type LifecycleConfig struct {
	// ExpirySweepInterval enables the expiry sweeper when positive.
	ExpirySweepInterval time.Duration `json:"expirySweepInterval" yaml:"expirySweepInterval"`
	ShutdownTimeout     time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

type WorkerConfig struct {
	Port int `json:"port" yaml:"port"`
	// PushPath is the route Pub/Sub push subscriptions post to.
	PushPath string `json:"pushPath" yaml:"pushPath"`
	// MaxMessageSize bounds a push body, e.g. "1MB".
	MaxMessageSize string `json:"maxMessageSize" yaml:"maxMessageSize"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	configFile, found := findConfigFile(searchPaths, currEnv+".yaml")
	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// ENV_VAR_NAME segments are aligned with the YAML keys already loaded,
	// e.g. STORE_MAXVALUEBYTES -> store.maxValueBytes.
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = defaultTokenTTL
	}
	if cfg.Store == nil {
		cfg.Store = &StoreConfig{}
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Store.MaxValueBytes <= 0 {
		cfg.Store.MaxValueBytes = defaultMaxValueBytes
	}
	if cfg.Store.TransactionRetries <= 0 {
		cfg.Store.TransactionRetries = defaultTransactionRetries
	}
	if cfg.Lifecycle == nil {
		cfg.Lifecycle = &LifecycleConfig{}
	}
	if cfg.Lifecycle.ShutdownTimeout <= 0 {
		cfg.Lifecycle.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Worker == nil {
		cfg.Worker = &WorkerConfig{}
	}
	if cfg.Worker.Port == 0 {
		cfg.Worker.Port = defaultWorkerPort
	}
	if cfg.Worker.PushPath == "" {
		cfg.Worker.PushPath = "/push"
	}
	if cfg.Worker.MaxMessageSize == "" {
		cfg.Worker.MaxMessageSize = "1MB"
	}
}

// IsProduction reports whether the service runs with production settings.
func (cfg *Config) IsProduction() bool {
	return strings.EqualFold(cfg.Env.Env, "production")
}

func findConfigFile(searchPaths []string, name string) (string, bool) {
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return "", false
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv reads POSTGRES_REPLICAS_{index}_{HOST,PORT,USERNAME,PASSWORD}.
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
