package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode":  "disable",
			"userName": "atrium",
		},
		"rateLimit": map[string]any{
			"maxAttempts": 5,
		},
		"auth": map[string]any{
			"stateSecret": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_USERNAME", want: "postgres.userName"},
		{envKey: "RATELIMIT_MAXATTEMPTS", want: "rateLimit.maxAttempts"},
		{envKey: "AUTH_STATESECRET", want: "auth.stateSecret"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Lockout.Threshold != 5 {
		t.Fatalf("lockout threshold = %d, want 5", cfg.Lockout.Threshold)
	}
	if cfg.TOTP.Period != 30 || cfg.TOTP.Digits != 6 || cfg.TOTP.Skew != 1 {
		t.Fatalf("unexpected totp defaults: %+v", cfg.TOTP)
	}
	if cfg.RateLimit.ResendMaxAttempts != 3 {
		t.Fatalf("resend max attempts = %d, want 3", cfg.RateLimit.ResendMaxAttempts)
	}
}
