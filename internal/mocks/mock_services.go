package mocks

import (
	"context"
	"time"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/service"
)

// MockPasswordHasher implements service.PasswordHasher for testing. The
// default uses a transparent "hashed:" prefix so tests stay fast.
type MockPasswordHasher struct {
	HashFunc             func(password string) (string, error)
	CheckFunc            func(password, hash string) bool
	ValidateStrengthFunc func(password string) error
}

// NewMockPasswordHasher creates a MockPasswordHasher with default behaviors.
func NewMockPasswordHasher() *MockPasswordHasher {
	return &MockPasswordHasher{}
}

// MockHash returns the deterministic hash the default Hash produces.
func MockHash(password string) string {
	return "hashed:" + password
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}

	return MockHash(password), nil
}

func (m *MockPasswordHasher) Check(password, hash string) bool {
	if m.CheckFunc != nil {
		return m.CheckFunc(password, hash)
	}

	return hash == MockHash(password)
}

func (m *MockPasswordHasher) ValidateStrength(password string) error {
	if m.ValidateStrengthFunc != nil {
		return m.ValidateStrengthFunc(password)
	}
	// Default behavior: accept everything
	return nil
}

// MockTOTPService implements service.TOTPService for testing.
type MockTOTPService struct {
	GenerateSecretFunc func() (string, error)
	ProvisionURIFunc   func(secret, account string) string
	VerifyCodeFunc     func(secret, code string, at time.Time) (bool, error)
}

// NewMockTOTPService creates a MockTOTPService with default behaviors.
func NewMockTOTPService() *MockTOTPService {
	return &MockTOTPService{}
}

func (m *MockTOTPService) GenerateSecret() (string, error) {
	if m.GenerateSecretFunc != nil {
		return m.GenerateSecretFunc()
	}

	return "JBSWY3DPEHPK3PXP", nil
}

func (m *MockTOTPService) ProvisionURI(secret, account string) string {
	if m.ProvisionURIFunc != nil {
		return m.ProvisionURIFunc(secret, account)
	}

	return "otpauth://totp/Test:" + account + "?secret=" + secret
}

func (m *MockTOTPService) VerifyCode(secret, code string, at time.Time) (bool, error) {
	if m.VerifyCodeFunc != nil {
		return m.VerifyCodeFunc(secret, code, at)
	}
	// Default behavior: a fixed well-known code passes
	return code == "123456", nil
}

// MockBackupCodeService implements service.BackupCodeService for testing.
type MockBackupCodeService struct {
	GenerateFunc func() ([]string, []string, error)
	MatchFunc    func(code string, digests []string) (string, bool)
}

// NewMockBackupCodeService creates a MockBackupCodeService with default behaviors.
func NewMockBackupCodeService() *MockBackupCodeService {
	return &MockBackupCodeService{}
}

func (m *MockBackupCodeService) Generate() ([]string, []string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}

	plain := make([]string, entity.BackupCodeCount)
	digests := make([]string, entity.BackupCodeCount)
	for i := range plain {
		plain[i] = "CODE" + string(rune('A'+i))
		digests[i] = "digest-" + plain[i]
	}

	return plain, digests, nil
}

func (m *MockBackupCodeService) Match(code string, digests []string) (string, bool) {
	if m.MatchFunc != nil {
		return m.MatchFunc(code, digests)
	}
	// Default behavior: match against the default Generate digests
	for _, digest := range digests {
		if digest == "digest-"+code {
			return digest, true
		}
	}

	return "", false
}

// MockRateLimiter implements service.RateLimiter for testing. The default
// allows everything.
type MockRateLimiter struct {
	AllowFunc func(ctx context.Context, action, identity string) error
	ResetFunc func(ctx context.Context, action, identity string) error

	// ResetCalls collects (action, identity) pairs seen by the default Reset.
	ResetCalls [][2]string
}

// NewMockRateLimiter creates a MockRateLimiter with default behaviors.
func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{}
}

func (m *MockRateLimiter) Allow(ctx context.Context, action, identity string) error {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, action, identity)
	}
	// Default behavior: always allowed
	return nil
}

func (m *MockRateLimiter) Reset(ctx context.Context, action, identity string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, action, identity)
	}
	m.ResetCalls = append(m.ResetCalls, [2]string{action, identity})

	return nil
}

// MockMailer implements service.Mailer for testing. The default records
// every send.
type MockMailer struct {
	SendPasswordResetFunc     func(ctx context.Context, email, rawToken string) error
	SendEmailVerificationFunc func(ctx context.Context, email, rawToken string) error
	SendSecurityAlertFunc     func(ctx context.Context, email string, kind service.SecurityAlertKind, meta map[string]string) error

	ResetMails  []string
	VerifyMails []string
	Alerts      []service.SecurityAlertKind
}

// NewMockMailer creates a MockMailer with default behaviors.
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, rawToken string) error {
	if m.SendPasswordResetFunc != nil {
		return m.SendPasswordResetFunc(ctx, email, rawToken)
	}
	m.ResetMails = append(m.ResetMails, email)

	return nil
}

func (m *MockMailer) SendEmailVerification(ctx context.Context, email, rawToken string) error {
	if m.SendEmailVerificationFunc != nil {
		return m.SendEmailVerificationFunc(ctx, email, rawToken)
	}
	m.VerifyMails = append(m.VerifyMails, email)

	return nil
}

func (m *MockMailer) SendSecurityAlert(ctx context.Context, email string, kind service.SecurityAlertKind, meta map[string]string) error {
	if m.SendSecurityAlertFunc != nil {
		return m.SendSecurityAlertFunc(ctx, email, kind, meta)
	}
	m.Alerts = append(m.Alerts, kind)

	return nil
}

// MockDeviceParser implements service.DeviceParser for testing.
type MockDeviceParser struct {
	ParseFunc func(userAgent string) entity.DeviceInfo
}

// NewMockDeviceParser creates a MockDeviceParser with default behaviors.
func NewMockDeviceParser() *MockDeviceParser {
	return &MockDeviceParser{}
}

func (m *MockDeviceParser) Parse(userAgent string) entity.DeviceInfo {
	if m.ParseFunc != nil {
		return m.ParseFunc(userAgent)
	}

	return entity.DeviceInfo{Browser: "Chrome", OS: "macOS", DeviceType: "desktop"}
}

// MockQRCodeService implements service.QRCodeService for testing.
type MockQRCodeService struct {
	DataURIFunc func(content string) (string, error)
}

// NewMockQRCodeService creates a MockQRCodeService with default behaviors.
func NewMockQRCodeService() *MockQRCodeService {
	return &MockQRCodeService{}
}

func (m *MockQRCodeService) DataURI(content string) (string, error) {
	if m.DataURIFunc != nil {
		return m.DataURIFunc(content)
	}

	return "data:image/png;base64,stub", nil
}

// MockOAuthProvider implements service.OAuthProvider for testing.
type MockOAuthProvider struct {
	NameValue       entity.ProviderType
	AuthCodeURLFunc func(state string) string
	ExchangeFunc    func(ctx context.Context, code string) (*service.ExternalIdentity, error)
}

// NewMockOAuthProvider creates a MockOAuthProvider for the given provider.
func NewMockOAuthProvider(name entity.ProviderType) *MockOAuthProvider {
	return &MockOAuthProvider{NameValue: name}
}

func (m *MockOAuthProvider) Name() entity.ProviderType {
	return m.NameValue
}

func (m *MockOAuthProvider) AuthCodeURL(state string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(state)
	}

	return "https://provider.example/authorize?state=" + state
}

func (m *MockOAuthProvider) Exchange(ctx context.Context, code string) (*service.ExternalIdentity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}

	return &service.ExternalIdentity{
		Provider:      m.NameValue,
		Subject:       "subject-" + code,
		Email:         "external@example.com",
		Name:          "External User",
		EmailVerified: true,
	}, nil
}
