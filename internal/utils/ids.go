package utils

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateNanoIDWithPrefix returns an id like "sess_x7k2m9..." with the
// given random length after the prefix.
func GenerateNanoIDWithPrefix(prefix string, length int) string {
	id, err := gonanoid.Generate(idAlphabet, length)
	if err != nil {
		// gonanoid only fails on a broken random source; fall back to time
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%s", prefix, id)
}

// GeneratePassword returns a random password with letters, digits and a
// couple of symbols, suitable for panel account provisioning.
func GeneratePassword(length int) (string, error) {
	return gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ!@#%", length)
}

func Now() time.Time {
	return time.Now().UTC()
}
