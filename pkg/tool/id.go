package tool

import (
	"github.com/google/uuid"
)

const maxRequestIDLen = 64

// GenerateUUIDV7 returns a time-ordered id so log rows sort by arrival.
func GenerateUUIDV7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// RequestID returns the caller supplied id when it is short printable ASCII,
// otherwise a fresh UUIDv7. The id ends up in logs and response headers.
func RequestID(supplied string) string {
	if supplied == "" || len(supplied) > maxRequestIDLen {
		return GenerateUUIDV7()
	}
	for i := 0; i < len(supplied); i++ {
		if c := supplied[i]; c < 0x21 || c > 0x7e {
			return GenerateUUIDV7()
		}
	}
	return supplied
}
