package repository

import (
	"regexp"
	"time"
)

// Attendee represents one ticket holder. Serial is the 4-digit ticket stub
// number assigned at payment time; it is nil until the attendee pays and is
// cleared again when the payment is cancelled. Verified records whether the
// holder has checked in at the venue gate.
type Attendee struct {
	ID         int64      `json:"id"`
	Klass      string     `json:"klass"`
	StudentNo  string     `json:"student_no"`
	Name       string     `json:"name"`
	SeatArea   string     `json:"seat_area"`
	Phone      string     `json:"phone"`
	AmountDue  float64    `json:"amount_due"`
	Paid       bool       `json:"paid"`
	PaidAt     *time.Time `json:"paid_at"`
	Notes      string     `json:"notes"`
	Serial     *string    `json:"serial"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Stats aggregates the registrar dashboard numbers. Sum is the collected
// amount: amount_due summed over paid rows only.
type Stats struct {
	Total  int64   `json:"total"`
	Paid   int64   `json:"paid"`
	Unpaid int64   `json:"unpaid"`
	Sum    float64 `json:"sum"`
}

var serialRe = regexp.MustCompile(`^[0-9]{4}$`)

// ValidSerial reports whether s is exactly four ASCII digits.
func ValidSerial(s string) bool { return serialRe.MatchString(s) }
