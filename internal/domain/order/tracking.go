package order

import (
	"crypto/rand"
	"math/big"

	"github.com/go-faster/errors"
)

const (
	// TrackingCodeLength is the number of symbols in a tracking code.
	TrackingCodeLength = 8

	trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var alphabetSize = big.NewInt(int64(len(trackingAlphabet)))

// NewTrackingCode returns a random code of TrackingCodeLength symbols from
// [A-Z0-9].
func NewTrackingCode() (string, error) {
	b := make([]byte, TrackingCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", errors.Wrap(err, "read random")
		}
		b[i] = trackingAlphabet[n.Int64()]
	}
	return string(b), nil
}

// IsTrackingCode reports whether s has the tracking code format.
func IsTrackingCode(s string) bool {
	if len(s) != TrackingCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
