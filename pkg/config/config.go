package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Write verification policies.
const (
	WriteVerificationOff    = "off"
	WriteVerificationVerify = "verify"
)

// Deactivation strategies against the account API.
const (
	DeactivateModeUpdate   = "update"
	DeactivateModeEndpoint = "endpoint"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	AccountAPI AccountAPIConfig
	Session    SessionConfig
	Redis      RedisConfig
	Log        LogConfig
	Listing    ListingConfig
	Levels     LevelsConfig
	Users      UsersConfig
	CORS       CORSConfig
}

// AccountAPIConfig points the console at the remote account-management API.
type AccountAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls the browser session lifecycle.
type SessionConfig struct {
	Store        string
	TTL          time.Duration
	PendingTTL   time.Duration
	CookieName   string
	DefaultTheme string
	// Secret keys the sealing of pending logins; instances sharing a Redis
	// store need the same value.
	Secret string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// ListingConfig tunes the user listing page.
type ListingConfig struct {
	PageSize int
}

// LevelsConfig governs caching of the access-level catalogue.
type LevelsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// UsersConfig selects write policies for user mutations.
type UsersConfig struct {
	WriteVerification string
	DeactivateMode    string
}

// CORSConfig lists origins allowed to call the JSON API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// Secure reports whether cookies must carry the Secure attribute.
func (c *Config) Secure() bool {
	return c != nil && c.Env == EnvProduction
}

// DefaultEnvFile is read when no other env file is named.
const DefaultEnvFile = ".env"

func Load() (*Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile reads configuration from the environment, overlaid on the given
// dotenv file when it exists.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = DefaultEnvFile
	}
	_ = godotenv.Load(path)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.AccountAPI = AccountAPIConfig{
		BaseURL: strings.TrimRight(v.GetString("ACCOUNT_API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("ACCOUNT_API_TIMEOUT"), 15*time.Second),
	}

	cfg.Session = SessionConfig{
		Store:        strings.ToLower(v.GetString("SESSION_STORE")),
		TTL:          parseDuration(v.GetString("SESSION_TTL"), 8*time.Hour),
		PendingTTL:   parseDuration(v.GetString("LOGIN_PENDING_TTL"), 5*time.Minute),
		CookieName:   v.GetString("SESSION_COOKIE_NAME"),
		DefaultTheme: strings.ToLower(v.GetString("DEFAULT_THEME")),
		Secret:       v.GetString("SESSION_SECRET"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	pageSize := v.GetInt("LIST_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 10
	}
	cfg.Listing = ListingConfig{PageSize: pageSize}

	cfg.Levels = LevelsConfig{
		CacheEnabled: v.GetBool("ENABLE_LEVELS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("LEVELS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Users = UsersConfig{
		WriteVerification: strings.ToLower(v.GetString("WRITE_VERIFICATION")),
		DeactivateMode:    strings.ToLower(v.GetString("DEACTIVATE_MODE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS"))}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.AccountAPI.BaseURL == "" {
		return errors.New("ACCOUNT_API_BASE_URL is required")
	}
	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return errors.New("SESSION_STORE must be memory or redis")
	}
	switch c.Session.DefaultTheme {
	case "light", "dark":
	default:
		c.Session.DefaultTheme = "dark"
	}
	switch c.Users.WriteVerification {
	case WriteVerificationOff, WriteVerificationVerify:
	default:
		return errors.New("WRITE_VERIFICATION must be off or verify")
	}
	switch c.Users.DeactivateMode {
	case DeactivateModeUpdate, DeactivateModeEndpoint:
	default:
		return errors.New("DEACTIVATE_MODE must be update or endpoint")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ACCOUNT_API_BASE_URL", "https://gerentemax-dev2.azurewebsites.net/api/v2")
	v.SetDefault("ACCOUNT_API_TIMEOUT", "15s")

	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_TTL", "8h")
	v.SetDefault("LOGIN_PENDING_TTL", "5m")
	v.SetDefault("SESSION_COOKIE_NAME", "console_session")
	v.SetDefault("DEFAULT_THEME", "dark")
	v.SetDefault("SESSION_SECRET", "")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LIST_PAGE_SIZE", 10)

	v.SetDefault("ENABLE_LEVELS_CACHE", false)
	v.SetDefault("LEVELS_CACHE_TTL", "10m")

	v.SetDefault("WRITE_VERIFICATION", WriteVerificationOff)
	v.SetDefault("DEACTIVATE_MODE", DeactivateModeUpdate)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
