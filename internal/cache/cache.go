package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache memoizes similarity scores by pair key
type Cache interface {
	Get(key string) (int, bool)
	Set(key string, score int)
	Len() int
	Clear()
}

// Entry is a cached score with its expiry. A zero ExpiresAt never expires.
type Entry struct {
	Score     int
	ExpiresAt time.Time
}

// PairKey generates an order-independent key for two normalized descriptions
func PairKey(backend, a, b string) string {
	if b < a {
		a, b = b, a
	}
	h := sha256.New()
	h.Write([]byte(a))
	h.Write([]byte{0})
	h.Write([]byte(b))
	return "dupdetect:v1:" + backend + ":" + hex.EncodeToString(h.Sum(nil))
}
