package session

import (
	"io"

	"github.com/pkg/errors"
)

const (
	secretLength = 40
	secretChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// generateSecret draws secretLength alphanumerics from random. Bytes that
// would bias the distribution are discarded.
func generateSecret(random io.Reader) (string, error) {
	limit := 256 - 256%len(secretChars)
	secret := make([]byte, 0, secretLength)
	buf := make([]byte, secretLength)
	for len(secret) < secretLength {
		if _, err := io.ReadFull(random, buf); err != nil {
			return "", errors.Wrap(err, "generating webhook secret")
		}
		for _, b := range buf {
			if int(b) >= limit || len(secret) == secretLength {
				continue
			}
			secret = append(secret, secretChars[int(b)%len(secretChars)])
		}
	}
	return string(secret), nil
}
