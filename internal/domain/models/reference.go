package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	ReferencePrefixDeposit    = "DEP"
	ReferencePrefixWithdrawal = "WD"
)

// NewReferenceID generates a human-facing transaction reference of the form
// "{PREFIX}-{epochMillis}-{8hexchars}". The random suffix comes from
// crypto/rand so references never collide within a millisecond.
func NewReferenceID(prefix string) string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(suffix))
}
