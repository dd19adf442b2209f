package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const OTPDigits = 6

// GenerateOTP returns a uniformly random numeric code of OTPDigits digits,
// without a leading zero (100000-999999).
func GenerateOTP() (string, error) {
	return generateOTP(rand.Reader)
}

func generateOTP(r io.Reader) (string, error) {
	n, err := rand.Int(r, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
