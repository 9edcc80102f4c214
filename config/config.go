package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultPath = "."

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int    `json:"port" yaml:"port"`
		BaseURL  string `json:"baseUrl" yaml:"baseUrl"` // Public origin used in emails and OAuth redirects.
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres PostgresConfig `json:"postgres" yaml:"postgres"`

	// Redis backs the shared TTL state store (rate limits, OAuth state).
	// When nil the service falls back to a per-process in-memory store.
	Redis *RedisConfig `json:"redis" yaml:"redis"`

	Auth AuthConfig `json:"auth" yaml:"auth"`

	PasswordStrength PasswordStrengthConfig `json:"passwordStrength" yaml:"passwordStrength"`

	TOTP TOTPConfig `json:"totp" yaml:"totp"`

	Lockout LockoutConfig `json:"lockout" yaml:"lockout"`

	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	OAuth OAuthConfig `json:"oauth" yaml:"oauth"`

	Audit AuditConfig `json:"audit" yaml:"audit"`
}

// PostgresConfig defines the primary database connection.
type PostgresConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	UserName string `json:"userName" yaml:"userName"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
	SSLMode  string `json:"sslMode" yaml:"sslMode"`

	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
}

// RedisConfig defines the optional shared state store backend.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// AuthConfig defines authentication-related configuration.
type AuthConfig struct {
	BcryptCost      int           `json:"bcryptCost" yaml:"bcryptCost"`
	SessionLifetime time.Duration `json:"sessionLifetime" yaml:"sessionLifetime"` // default 720h (30 days)
	SessionSweep    time.Duration `json:"sessionSweep" yaml:"sessionSweep"`       // default 1h
	ResetTokenTTL   time.Duration `json:"resetTokenTtl" yaml:"resetTokenTtl"`     // default 1h
	VerifyTokenTTL  time.Duration `json:"verifyTokenTtl" yaml:"verifyTokenTtl"`   // default 24h
	// StateSecret signs OAuth state and pending-link tickets (HS256).
	StateSecret string `json:"stateSecret" yaml:"stateSecret"`
}

// PasswordStrengthConfig defines password strength requirements.
type PasswordStrengthConfig struct {
	MinLength        int  `json:"minLength" yaml:"minLength"`
	RequireUppercase bool `json:"requireUppercase" yaml:"requireUppercase"`
	RequireLowercase bool `json:"requireLowercase" yaml:"requireLowercase"`
	RequireNumbers   bool `json:"requireNumbers" yaml:"requireNumbers"`
	RequireSpecial   bool `json:"requireSpecial" yaml:"requireSpecial"`
	MaxLength        int  `json:"maxLength" yaml:"maxLength"`
}

// TOTPConfig defines two-factor authentication parameters. Digits, period
// and algorithm are fixed by authenticator-app compatibility and only the
// issuer label is expected to vary between environments.
type TOTPConfig struct {
	Issuer string `json:"issuer" yaml:"issuer"`
	Digits int    `json:"digits" yaml:"digits"` // default 6
	Period int    `json:"period" yaml:"period"` // seconds, default 30
	Skew   int    `json:"skew" yaml:"skew"`     // accepted steps of drift each way, default 1
}

// LockoutConfig defines the account lockout policy.
type LockoutConfig struct {
	Threshold int           `json:"threshold" yaml:"threshold"` // default 5
	Cooldown  time.Duration `json:"cooldown" yaml:"cooldown"`   // default 30m
}

// RateLimitConfig defines per-action sliding windows.
type RateLimitConfig struct {
	Window      time.Duration `json:"window" yaml:"window"`           // default 15m
	MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"` // default 5
	// ResendVerification gets its own, stricter budget: 3 per hour per email.
	ResendWindow      time.Duration `json:"resendWindow" yaml:"resendWindow"`
	ResendMaxAttempts int           `json:"resendMaxAttempts" yaml:"resendMaxAttempts"`
}

// OAuthProviderConfig holds one provider's client credentials.
type OAuthProviderConfig struct {
	ClientID     string `json:"clientId" yaml:"clientId"`
	ClientSecret string `json:"clientSecret" yaml:"clientSecret"`
}

// OAuthConfig defines external identity provider settings.
type OAuthConfig struct {
	Google    *OAuthProviderConfig `json:"google" yaml:"google"`
	Microsoft *OAuthProviderConfig `json:"microsoft" yaml:"microsoft"`
	// MicrosoftTenant selects the Azure AD tenant segment, default "common".
	MicrosoftTenant string `json:"microsoftTenant" yaml:"microsoftTenant"`
	// StateTTL bounds the consent round-trip, default 10m.
	StateTTL time.Duration `json:"stateTtl" yaml:"stateTtl"`
	// LinkTicketTTL bounds the explicit account-linking confirmation, default 15m.
	LinkTicketTTL time.Duration `json:"linkTicketTtl" yaml:"linkTicketTtl"`
	// DefaultTenant is the tenant UUID assigned to accounts provisioned on
	// first OAuth sign-in. Empty leaves provisioned accounts on the zero
	// tenant until an admin moves them.
	DefaultTenant string `json:"defaultTenant" yaml:"defaultTenant"`
}

// AuditConfig defines audit log retention.
type AuditConfig struct {
	Retention time.Duration `json:"retention" yaml:"retention"` // default 2160h (90 days)
	Sweep     time.Duration `json:"sweep" yaml:"sweep"`         // default 24h
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 12
	}
	if c.Auth.SessionLifetime == 0 {
		c.Auth.SessionLifetime = 30 * 24 * time.Hour
	}
	if c.Auth.SessionSweep == 0 {
		c.Auth.SessionSweep = time.Hour
	}
	if c.Auth.ResetTokenTTL == 0 {
		c.Auth.ResetTokenTTL = time.Hour
	}
	if c.Auth.VerifyTokenTTL == 0 {
		c.Auth.VerifyTokenTTL = 24 * time.Hour
	}
	if c.PasswordStrength.MinLength == 0 {
		c.PasswordStrength = PasswordStrengthConfig{
			MinLength:        8,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
			RequireSpecial:   true,
			MaxLength:        128,
		}
	}
	if c.TOTP.Issuer == "" {
		c.TOTP.Issuer = "Atrium"
	}
	if c.TOTP.Digits == 0 {
		c.TOTP.Digits = 6
	}
	if c.TOTP.Period == 0 {
		c.TOTP.Period = 30
	}
	if c.TOTP.Skew == 0 {
		c.TOTP.Skew = 1
	}
	if c.Lockout.Threshold == 0 {
		c.Lockout.Threshold = 5
	}
	if c.Lockout.Cooldown == 0 {
		c.Lockout.Cooldown = 30 * time.Minute
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = 15 * time.Minute
	}
	if c.RateLimit.MaxAttempts == 0 {
		c.RateLimit.MaxAttempts = 5
	}
	if c.RateLimit.ResendWindow == 0 {
		c.RateLimit.ResendWindow = time.Hour
	}
	if c.RateLimit.ResendMaxAttempts == 0 {
		c.RateLimit.ResendMaxAttempts = 3
	}
	if c.OAuth.MicrosoftTenant == "" {
		c.OAuth.MicrosoftTenant = "common"
	}
	if c.OAuth.StateTTL == 0 {
		c.OAuth.StateTTL = 10 * time.Minute
	}
	if c.OAuth.LinkTicketTTL == 0 {
		c.OAuth.LinkTicketTTL = 15 * time.Minute
	}
	if c.Audit.Retention == 0 {
		c.Audit.Retention = 90 * 24 * time.Hour
	}
	if c.Audit.Sweep == 0 {
		c.Audit.Sweep = 24 * time.Hour
	}
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
