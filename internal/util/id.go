package util

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ID prefixes of the stored records.
const (
	PrefixDonation     = "don"
	PrefixCollection   = "col"
	PrefixUser         = "user"
	PrefixNotification = "notif"
	PrefixImage        = "img"
	PrefixDevice       = "dev"
)

// NewID returns "<prefix>_<unix millis>_<6 random chars>".
func NewID(prefix string, now time.Time) string {
	suffix, err := gonanoid.Generate(idAlphabet, 6)
	if err != nil {
		// Only fails when crypto/rand does.
		suffix = fmt.Sprintf("%06d", now.Nanosecond()%1000000)
	}

	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), suffix)
}

// ShortID returns the last eight characters of an identifier, the form used
// in notification texts.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}

	return id[len(id)-8:]
}
