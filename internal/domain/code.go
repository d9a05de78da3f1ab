package domain

import (
	"strings"

	"github.com/google/uuid"
)

const bookingCodePrefix = "BK-"

// NewBookingCode returns a short randomized booking code such as
// "BK-9F86D081". Codes are statistically unique; the database's unique
// constraint is the authority, and a collision surfaces as ErrDuplicateCode
// from the booking repository.
func NewBookingCode() string {
	return bookingCodePrefix + strings.ToUpper(uuid.NewString()[:8])
}
