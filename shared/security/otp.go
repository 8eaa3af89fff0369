package security

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// OTPTTL is how long a freshly generated login OTP stays valid.
const OTPTTL = 10 * time.Minute

// otpRange covers the six-digit codes [100000, 999999].
var otpRange = big.NewInt(900000)

// GenerateOTP returns a uniformly random six-digit numeric code as a
// string, so the leading digit structure survives transport.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpRange)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// IsExpired reports whether now is strictly after expiresAt.
func IsExpired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}
