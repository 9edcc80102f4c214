package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/service"
)

// Alphabet omits characters users confuse when typing codes back (0/O, 1/I/L, 8/B).
const backupCodeAlphabet = "ACDEFGHJKMNPQRTUVWXYZ2345679"

const backupCodeLength = 10

type backupCodeService struct{}

// NewBackupCodeService returns the recovery-code generator.
func NewBackupCodeService() service.BackupCodeService {
	return backupCodeService{}
}

// Generate returns a full set of plaintext codes and their storage digests,
// index-aligned. The plaintext is shown to the user exactly once.
func (backupCodeService) Generate() ([]string, []string, error) {
	plain := make([]string, 0, entity.BackupCodeCount)
	digests := make([]string, 0, entity.BackupCodeCount)

	for range entity.BackupCodeCount {
		code, err := newBackupCode()
		if err != nil {
			return nil, nil, err
		}
		plain = append(plain, formatBackupCode(code))
		digests = append(digests, digestBackupCode(code))
	}

	return plain, digests, nil
}

// Match finds the digest matching a candidate code. Every stored digest is
// compared regardless of earlier matches so timing does not reveal position.
func (backupCodeService) Match(code string, digests []string) (string, bool) {
	candidate := digestBackupCode(canonicalizeBackupCode(code))

	var matched string
	var found bool
	for _, digest := range digests {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1 {
			matched = digest
			found = true
		}
	}

	return matched, found
}

func newBackupCode() (string, error) {
	var b strings.Builder
	b.Grow(backupCodeLength)
	for range backupCodeLength {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(backupCodeAlphabet))))
		if err != nil {
			return "", errors.Wrap(err, "read random index")
		}
		b.WriteByte(backupCodeAlphabet[n.Int64()])
	}

	return b.String(), nil
}

func formatBackupCode(code string) string {
	mid := len(code) / 2

	return code[:mid] + "-" + code[mid:]
}

func canonicalizeBackupCode(code string) string {
	s := strings.ToUpper(strings.TrimSpace(code))
	s = strings.ReplaceAll(s, "-", "")

	return strings.ReplaceAll(s, " ", "")
}

func digestBackupCode(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))

	return hex.EncodeToString(sum[:])
}
