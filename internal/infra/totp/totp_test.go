package totp

import (
	"encoding/base32"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/config"
)

func testConfig() config.TOTPConfig {
	return config.TOTPConfig{
		Issuer: "Atrium",
		Digits: 6,
		Period: 30,
		Skew:   1,
	}
}

// RFC 6238 Appendix B shared secret, truncated to six digits.
var rfcSecret = base32.StdEncoding.WithPadding(base32.NoPadding).
	EncodeToString([]byte("12345678901234567890"))

func TestVerifyCode_RFCVectors(t *testing.T) {
	svc := NewTOTPService(testConfig())

	tests := []struct {
		unix int64
		code string
	}{
		{unix: 59, code: "287082"},
		{unix: 1111111109, code: "081804"},
		{unix: 1111111111, code: "050471"},
		{unix: 1234567890, code: "005924"},
		{unix: 2000000000, code: "279037"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			ok, err := svc.VerifyCode(rfcSecret, tt.code, time.Unix(tt.unix, 0))
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestVerifyCode_RejectsWrongCode(t *testing.T) {
	svc := NewTOTPService(testConfig())

	ok, err := svc.VerifyCode(rfcSecret, "000000", time.Unix(59, 0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCode_SkewWindow(t *testing.T) {
	svc := NewTOTPService(testConfig())

	// 287082 belongs to the step covering unix 30..59. With one step of
	// skew it is still valid one period later, but not two.
	ok, err := svc.VerifyCode(rfcSecret, "287082", time.Unix(89, 0))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyCode(rfcSecret, "287082", time.Unix(119, 0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCode_RejectsMalformedInput(t *testing.T) {
	svc := NewTOTPService(testConfig())

	for _, code := range []string{"", "12345", "1234567", "12345a", "abc def"} {
		ok, err := svc.VerifyCode(rfcSecret, code, time.Unix(59, 0))
		require.NoError(t, err)
		assert.False(t, ok, "code %q accepted", code)
	}
}

func TestVerifyCode_TrimsWhitespace(t *testing.T) {
	svc := NewTOTPService(testConfig())

	ok, err := svc.VerifyCode(rfcSecret, "  287082  ", time.Unix(59, 0))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyCode_BadSecret(t *testing.T) {
	svc := NewTOTPService(testConfig())

	_, err := svc.VerifyCode("not!base32!!", "287082", time.Unix(59, 0))
	assert.Error(t, err)
}

func TestGenerateSecret(t *testing.T) {
	svc := NewTOTPService(testConfig())

	secret, err := svc.GenerateSecret()
	require.NoError(t, err)

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	require.NoError(t, err)
	assert.Len(t, raw, 20)

	other, err := svc.GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestProvisionURI(t *testing.T) {
	svc := NewTOTPService(testConfig())

	uri := svc.ProvisionURI("SECRETBASE32", "agent@example.com")

	assert.Contains(t, uri, "otpauth://totp/Atrium:agent@example.com")
	assert.Contains(t, uri, "secret=SECRETBASE32")
	assert.Contains(t, uri, "issuer=Atrium")
	assert.Contains(t, uri, "digits=6")
	assert.Contains(t, uri, "period=30")
	assert.Contains(t, uri, "algorithm=SHA1")
}
