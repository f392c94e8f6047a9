package db

import (
	"crypto/rand"
	"encoding/hex"

	"vidstream/internal/constants"
)

// GenerateID returns a prefixed random entity ID, e.g. "usr_9f86d081884c7d65".
func GenerateID(prefix string) (string, error) {
	b := make([]byte, constants.IDRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + "_" + hex.EncodeToString(b), nil
}
