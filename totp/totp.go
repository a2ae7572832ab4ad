package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const secretBytes = 20

// Config carries the TOTP parameters shared with the authenticator app.
// Config instances are intended to be configured during initialization
// and then treated as immutable.
type Config struct {
	Issuer    string
	Digits    int
	Period    int
	Skew      int
	Algorithm string // "SHA1" (default), "SHA256", or "SHA512"
}

// Manager generates secrets and verifies codes. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("totp issuer is required")
	}
	if cfg.Digits != 6 && cfg.Digits != 8 {
		return nil, errors.New("totp digits must be 6 or 8")
	}
	if cfg.Period < 15 {
		return nil, errors.New("totp period must be >= 15 seconds")
	}
	if cfg.Skew < 0 {
		return nil, errors.New("totp skew must be >= 0")
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = "SHA1"
	}
	if _, err := hmacFunc(cfg.Algorithm); err != nil {
		return nil, err
	}

	return &Manager{config: cfg}, nil
}

// GenerateSecret returns a fresh 160-bit secret, base32-encoded without
// padding as authenticator apps expect.
func (m *Manager) GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return enc.EncodeToString(raw), nil
}

// ProvisionURI builds the otpauth:// URI encoding the secret and
// parameters for the named account, suitable for QR rendering.
func (m *Manager) ProvisionURI(secretBase32, account string) string {
	label := url.PathEscape(m.config.Issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secretBase32)
	v.Set("issuer", m.config.Issuer)
	v.Set("period", strconv.Itoa(m.config.Period))
	v.Set("digits", strconv.Itoa(m.config.Digits))
	v.Set("algorithm", strings.ToUpper(m.config.Algorithm))

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// VerifyCode reports whether code is valid for the secret at the given
// time, accepting codes from up to Skew steps on either side. The digit
// comparison is constant time; a malformed code is (false, nil).
func (m *Manager) VerifyCode(secretBase32, code string, now time.Time) (bool, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != m.config.Digits || !isNumeric(trimmed) {
		return false, nil
	}

	secret, err := decodeSecret(secretBase32)
	if err != nil {
		return false, err
	}

	baseCounter := now.Unix() / int64(m.config.Period)
	for step := -m.config.Skew; step <= m.config.Skew; step++ {
		counter := baseCounter + int64(step)
		if counter < 0 {
			continue
		}
		generated, err := hotpCode(secret, counter, m.config.Digits, m.config.Algorithm)
		if err != nil {
			return false, err
		}
		if subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed)) == 1 {
			return true, nil
		}
	}

	return false, nil
}

// CodeAt returns the code for the secret at time t, for enrollment
// previews and test fixtures.
func (m *Manager) CodeAt(secretBase32 string, t time.Time) (string, error) {
	secret, err := decodeSecret(secretBase32)
	if err != nil {
		return "", err
	}
	return hotpCode(secret, t.Unix()/int64(m.config.Period), m.config.Digits, m.config.Algorithm)
}

func decodeSecret(secretBase32 string) ([]byte, error) {
	normalized := strings.ToUpper(strings.TrimRight(secretBase32, "="))
	if normalized == "" {
		return nil, errors.New("empty totp secret")
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	secret, err := enc.DecodeString(normalized)
	if err != nil {
		return nil, errors.New("invalid totp secret encoding")
	}
	return secret, nil
}

func hotpCode(secret []byte, counter int64, digits int, algorithm string) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	hf, err := hmacFunc(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(hf, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod), nil
}

func hmacFunc(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, errors.New("unsupported totp algorithm")
	}
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
