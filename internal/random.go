package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	verificationTokenSize = 32
	csrfTokenSize         = 32
)

// NewVerificationToken returns a 256-bit random opaque token encoded as
// unpadded base64url. It keys a pending registration record until the
// owner follows the emailed verification link.
func NewVerificationToken() (string, error) {
	var raw [verificationTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ValidVerificationToken reports whether token decodes to exactly the raw
// size produced by NewVerificationToken. Used to reject garbage before a
// store round trip.
func ValidVerificationToken(token string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return len(raw) == verificationTokenSize
}

// NewCSRFToken returns a 256-bit random anti-forgery token encoded as
// unpadded base64url.
func NewCSRFToken() (string, error) {
	var raw [csrfTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// NewOTP returns a uniformly random decimal code of the given length,
// left-zero-padded. Each digit is drawn independently from crypto/rand.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	for i := 0; i < digits; i++ {
		d, err := randDigit()
		if err != nil {
			return "", err
		}
		b.WriteByte('0' + d)
	}

	otp := b.String()
	if len(otp) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}

// randDigit draws one uniform digit. Bytes >= 250 are rejected so the
// mod-10 reduction stays unbiased.
func randDigit() (byte, error) {
	var one [1]byte
	for {
		if _, err := rand.Read(one[:]); err != nil {
			return 0, err
		}
		if one[0] < 250 {
			return one[0] % 10, nil
		}
	}
}

// HashSecret is the canonical digest for stored challenge secrets. OTP
// codes and CSRF values are never persisted in plaintext.
func HashSecret(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}

// IsNumeric reports whether s is non-empty and all ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
