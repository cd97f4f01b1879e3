package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Push      PushConfig      `yaml:"push"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Matching  MatchingConfig  `yaml:"matching"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// MongoConfig contains MongoDB connection settings
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// RedisConfig contains redis connection settings for distributed locks
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Disabled switches the locker to a no-op, for single-node setups.
	Disabled bool `yaml:"disabled"`
}

// PushConfig contains push notification settings
type PushConfig struct {
	// Type is "fcm" or "log".
	Type            string `yaml:"type"`
	CredentialsFile string `yaml:"credentials_file"`
}

// GeocoderConfig contains reverse geocoding settings
type GeocoderConfig struct {
	// Type is "google" or "static".
	Type   string `yaml:"type"`
	APIKey string `yaml:"api_key"`
}

// JWTConfig contains session token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// MatchingConfig tunes candidate matching and invite dispatch
type MatchingConfig struct {
	// InviteBatchSize caps live invites per request.
	InviteBatchSize int `yaml:"invite_batch_size"`
	// InviteExpiryMinutes is how long an invitee has to accept.
	InviteExpiryMinutes int `yaml:"invite_expiry_minutes"`
	// StationaryThreshold is the report count at which a repeated
	// location is considered a regular spot.
	StationaryThreshold int `yaml:"stationary_threshold"`
	// AddressThreshold is the report count at which a regular spot is
	// promoted to a permanent address.
	AddressThreshold int `yaml:"address_threshold"`
	// RegionPointLimit caps how many frequent locations feed a travel
	// region hull.
	RegionPointLimit int `yaml:"region_point_limit"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	PruneExpiredInvites string `yaml:"prune_expired_invites"`
	SweepStaleRequests  string `yaml:"sweep_stale_requests"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	if val := os.Getenv("MONGO_URI"); val != "" {
		c.Mongo.URI = val
	}
	if val := os.Getenv("MONGO_DATABASE"); val != "" {
		c.Mongo.Database = val
	}

	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	if val := os.Getenv("FCM_CREDENTIALS_FILE"); val != "" {
		c.Push.CredentialsFile = val
	}
	if val := os.Getenv("GEOCODER_API_KEY"); val != "" {
		c.Geocoder.APIKey = val
	}

	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo URI is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo database name is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60 * 24 * 30 // a month
	}

	if c.Push.Type == "" {
		c.Push.Type = "log"
	}
	if c.Push.Type != "fcm" && c.Push.Type != "log" {
		return fmt.Errorf("invalid push type: %s", c.Push.Type)
	}
	if c.Push.Type == "fcm" && c.Push.CredentialsFile == "" {
		return fmt.Errorf("push credentials file is required for fcm")
	}

	if c.Geocoder.Type == "" {
		c.Geocoder.Type = "static"
	}
	if c.Geocoder.Type != "google" && c.Geocoder.Type != "static" {
		return fmt.Errorf("invalid geocoder type: %s", c.Geocoder.Type)
	}
	if c.Geocoder.Type == "google" && c.Geocoder.APIKey == "" {
		return fmt.Errorf("geocoder API key is required for google")
	}

	// Matching defaults
	if c.Matching.InviteBatchSize == 0 {
		c.Matching.InviteBatchSize = 100
	}
	if c.Matching.InviteExpiryMinutes == 0 {
		c.Matching.InviteExpiryMinutes = 15
	}
	if c.Matching.StationaryThreshold == 0 {
		c.Matching.StationaryThreshold = 3
	}
	if c.Matching.AddressThreshold == 0 {
		c.Matching.AddressThreshold = 5
	}
	if c.Matching.RegionPointLimit == 0 {
		c.Matching.RegionPointLimit = 20
	}

	// Scheduler defaults
	if c.Scheduler.PruneExpiredInvites == "" {
		c.Scheduler.PruneExpiredInvites = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.SweepStaleRequests == "" {
		c.Scheduler.SweepStaleRequests = "0 0 * * * *" // hourly
	}

	return nil
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
