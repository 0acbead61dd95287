package certificate

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// validity is fixed policy: certificates expire one year after issuance.
const validity = 365 * 24 * time.Hour

// Certificate is an immutable record of a passing quiz attempt. There is no
// update or revoke operation; expiry is purely date-based and evaluated by readers.
type Certificate struct {
	ID                string    `json:"id"`
	AttemptID         string    `json:"attempt_id"`
	OrgID             string    `json:"org_id"`
	MemberID          string    `json:"member_id"`
	QuizID            string    `json:"quiz_id"`
	CertificateNumber string    `json:"certificate_number"`
	Score             int       `json:"score"`
	IssuedAt          time.Time `json:"issued_at"`   // UTC
	ValidUntil        time.Time `json:"valid_until"` // UTC
}

// Expired reports whether the certificate is past its validity window.
func (c Certificate) Expired(now time.Time) bool {
	return now.After(c.ValidUntil)
}

// newCertificateNumber generates a globally unique certificate number. The
// format is presentation only; uniqueness is the contract.
func newCertificateNumber() string {
	return "VT-" + strings.ToUpper(uuid.New().String())
}
