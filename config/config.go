package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/asucbc/cbc-api/pkg/geo"
	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Redeem        RedeemConfig
	Calendar      CalendarConfig
	Auth          AuthConfig
	Database      DatabaseConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	BaseURL        string
	AllowedOrigins []string
}

// Redemption rate limit defaults. Attendees at one event usually share the
// venue network, so the per-IP budget has to fit a full room.
const (
	DefaultRedeemRateLimitRPS   = 5.0
	DefaultRedeemRateLimitBurst = 50
)

// RedeemConfig is built once at startup. A nil EventLocation or an empty
// WebhookURLs list is reported per request as a configuration error.
type RedeemConfig struct {
	EventLocation         *geo.Point
	WebhookURLs           []string
	WebhookTimeoutSeconds int
	ThumbnailURL          string
	RateLimitRPS          float64
	RateLimitBurst        int
}

// LocationConfigured reports whether both event coordinates were provided
func (r RedeemConfig) LocationConfigured() bool {
	return r.EventLocation != nil
}

type CalendarConfig struct {
	APIKey          string
	CalendarID      string
	TimeZone        string
	CacheTTLSeconds int
	APIBaseURL      string
}

type AuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	PublicBaseURL      string
	AllowedEmailDomain string
	JWTSecret          string
	JWTIssuer          string
	SessionTTLHours    int
	CookieDomain       string
	CookieSecure       bool
}

// Enabled reports whether Google sign-in can be served
func (a AuthConfig) Enabled() bool {
	return a.GoogleClientID != "" && a.GoogleClientSecret != "" && a.JWTSecret != ""
}

// CallbackURL is the OAuth redirect URI registered with Google
func (a AuthConfig) CallbackURL() string {
	return strings.TrimRight(a.PublicBaseURL, "/") + "/api/auth/google/callback"
}

// DatabaseConfig is optional. Without a URL signed-in users are not recorded.
type DatabaseConfig struct {
	URL            string
	MaxConns       int32
	MinConns       int32
	CACertPath     string
	TLSServerName  string
	MigrationsPath string
}

// Enabled reports whether a database URL was provided
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "https://asucbc.vercel.app")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://asucbc.vercel.app")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("REDEEM_WEBHOOK_TIMEOUT_SECONDS", 5)
	v.SetDefault("REDEEM_RATE_LIMIT_RPS", DefaultRedeemRateLimitRPS)
	v.SetDefault("REDEEM_RATE_LIMIT_BURST", DefaultRedeemRateLimitBurst)
	v.SetDefault("REDEEM_THUMBNAIL_URL", "https://asucbc.vercel.app/staff/claude.svg")
	v.SetDefault("GOOGLE_CALENDAR_ID", "asu.edu_primary")
	v.SetDefault("CALENDAR_TIMEZONE", "America/Phoenix")
	v.SetDefault("CALENDAR_CACHE_TTL", 300) // 5 minutes in seconds
	v.SetDefault("GOOGLE_CALENDAR_API_BASE_URL", "https://www.googleapis.com/calendar/v3")
	v.SetDefault("AUTH_ALLOWED_EMAIL_DOMAIN", "asu.edu")
	v.SetDefault("JWT_ISSUER", "cbc-api")
	v.SetDefault("SESSION_TTL_HOURS", 24*7)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("DATABASE_MAX_CONNS", 5)
	v.SetDefault("DATABASE_MIN_CONNS", 1)
	v.SetDefault("DATABASE_CA_CERT", "certs/ca.crt")
	v.SetDefault("DATABASE_MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_SERVICE_NAME", "cbc-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "asucbc")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	publicBaseURL := v.GetString("BETTER_AUTH_URL")
	if publicBaseURL == "" {
		publicBaseURL = v.GetString("BASE_URL")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			BaseURL:        v.GetString("BASE_URL"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Redeem: RedeemConfig{
			EventLocation:         parseEventLocation(v.GetString("EVENT_GPS_LAT"), v.GetString("EVENT_GPS_LONG")),
			WebhookURLs:           splitList(v.GetString("DISCORD_REDEEM_WEBHOOK_URLS")),
			WebhookTimeoutSeconds: v.GetInt("REDEEM_WEBHOOK_TIMEOUT_SECONDS"),
			ThumbnailURL:          v.GetString("REDEEM_THUMBNAIL_URL"),
			RateLimitRPS:          v.GetFloat64("REDEEM_RATE_LIMIT_RPS"),
			RateLimitBurst:        v.GetInt("REDEEM_RATE_LIMIT_BURST"),
		},
		Calendar: CalendarConfig{
			APIKey:          v.GetString("GOOGLE_CALENDAR_API_KEY"),
			CalendarID:      v.GetString("GOOGLE_CALENDAR_ID"),
			TimeZone:        v.GetString("CALENDAR_TIMEZONE"),
			CacheTTLSeconds: v.GetInt("CALENDAR_CACHE_TTL"),
			APIBaseURL:      v.GetString("GOOGLE_CALENDAR_API_BASE_URL"),
		},
		Auth: AuthConfig{
			GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			PublicBaseURL:      publicBaseURL,
			AllowedEmailDomain: strings.ToLower(strings.TrimPrefix(v.GetString("AUTH_ALLOWED_EMAIL_DOMAIN"), "@")),
			JWTSecret:          v.GetString("JWT_SECRET"),
			JWTIssuer:          v.GetString("JWT_ISSUER"),
			SessionTTLHours:    v.GetInt("SESSION_TTL_HOURS"),
			CookieDomain:       v.GetString("COOKIE_DOMAIN"),
			CookieSecure:       v.GetBool("COOKIE_SECURE"),
		},
		Database: DatabaseConfig{
			URL:            v.GetString("DATABASE_URL"),
			MaxConns:       v.GetInt32("DATABASE_MAX_CONNS"),
			MinConns:       v.GetInt32("DATABASE_MIN_CONNS"),
			CACertPath:     v.GetString("DATABASE_CA_CERT"),
			TLSServerName:  v.GetString("DATABASE_TLS_SERVER_NAME"),
			MigrationsPath: v.GetString("DATABASE_MIGRATIONS_PATH"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set. Missing event
// location or webhooks are not startup errors: the redeem endpoint reports
// them per request.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.Redeem.WebhookTimeoutSeconds <= 0 {
		return fmt.Errorf("REDEEM_WEBHOOK_TIMEOUT_SECONDS must be positive")
	}
	if c.Redeem.RateLimitRPS <= 0 || c.Redeem.RateLimitBurst <= 0 {
		return fmt.Errorf("REDEEM_RATE_LIMIT_RPS and REDEEM_RATE_LIMIT_BURST must be positive")
	}

	if c.Auth.GoogleClientID != "" {
		if c.Auth.GoogleClientSecret == "" {
			return fmt.Errorf("GOOGLE_CLIENT_SECRET is required when GOOGLE_CLIENT_ID is set")
		}
		if c.Auth.PublicBaseURL == "" {
			return fmt.Errorf("BETTER_AUTH_URL or BASE_URL is required when GOOGLE_CLIENT_ID is set")
		}
		if c.Auth.SessionTTLHours <= 0 {
			return fmt.Errorf("SESSION_TTL_HOURS must be positive")
		}
	}

	if c.Database.Enabled() && c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("DATABASE_MAX_CONNS must be at least DATABASE_MIN_CONNS")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

// parseEventLocation treats a coordinate as present only when the variable
// is set and parses to a finite number. An explicit "0" is a valid coordinate.
func parseEventLocation(latStr, lonStr string) *geo.Point {
	lat, ok := parseCoordinate(latStr)
	if !ok {
		return nil
	}
	lon, ok := parseCoordinate(lonStr)
	if !ok {
		return nil
	}
	return &geo.Point{Lat: lat, Lon: lon}
}

func parseCoordinate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// splitList parses a comma-separated list, keeping order and dropping blanks
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
