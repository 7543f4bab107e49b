package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	InvoicePrefix  = "INV"
	EstimatePrefix = "EST"
)

// DocumentNumber formats a per-user sequence number, e.g. INV-000042
func DocumentNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%06d", prefix, seq)
}

// RandomToken returns n random bytes hex encoded
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
