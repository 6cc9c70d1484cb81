package core

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

// Payment intent lifecycle. An intent is created pending, moves to applied
// once the campaign's raised total has been incremented, and ends committed
// when the Payment record and reference append are durable. A commit attempt
// that errors after the increment leaves the intent failed; pending intents
// whose increment never ran end up aborted.
const (
	IntentPending   IntentStatus = "pending"
	IntentApplied   IntentStatus = "applied"
	IntentCommitted IntentStatus = "committed"
	IntentFailed    IntentStatus = "failed"
	IntentAborted   IntentStatus = "aborted"
)

type (
	// IntentStatus tracks the lifecycle of a payment intent.
	IntentStatus string

	Money struct {
		Cents int64
	}

	User struct {
		ID    string
		Name  string
		Email string
		Role  string
	}

	Category struct {
		ID   string
		Name string
	}

	Campaign struct {
		ID          string
		Title       string
		Description string
		Goal        Money
		Raised      Money
		CategoryID  string
		OrganizerID string
		Featured    bool
		StartDate   time.Time
		EndDate     time.Time
		PaymentIDs  []string // ordered, append-only
	}

	// Payment is immutable after creation. Its ID doubles as the idempotency
	// key: it equals the payment intent ID that produced it, so a retried
	// commit can never create a second Payment for the same intent.
	Payment struct {
		ID         string
		CampaignID string
		PayerID    string
		Amount     Money
		CreatedAt  time.Time
	}

	// PaymentIntent is written before a campaign's raised total is touched.
	// An intent left in status failed marks an orphan increment that the
	// reconciliation worker finishes committing.
	PaymentIntent struct {
		ID         string
		CampaignID string
		PayerID    string
		Amount     Money
		Status     IntentStatus
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// CampaignView is a campaign with its category and organizer references
	// resolved to full records.
	CampaignView struct {
		Campaign
		Category  Category
		Organizer User
	}

	// CampaignFilter fields combine by logical AND; zero values are ignored.
	CampaignFilter struct {
		SearchText  string
		CategoryID  string
		OrganizerID string
		ID          string
		Featured    bool
		Limit       int
	}

	// DailyTotal is one gap-filled row of the daily statistics series.
	DailyTotal struct {
		Date    string // YYYY-MM-DD, UTC day
		Weekday string
		Total   Money
	}

	UserTotals struct {
		TotalDonation     Money
		UserTotalDonation Money
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidID     = errors.New("invalid identifier")
	ErrInvalidWindow = errors.New("invalid statistics window")
	ErrBrokenRef     = errors.New("broken reference")
	ErrAlreadyExists = errors.New("already exists")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidID reports whether s is a well-formed identifier: non-empty,
// at most 64 bytes, printable, and free of whitespace.
func ValidID(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func (p Payment) Validate() error {
	if !ValidID(p.CampaignID) || !ValidID(p.PayerID) {
		return ErrInvalidID
	}
	return p.Amount.Validate()
}

func (i PaymentIntent) Validate() error {
	if !ValidID(i.ID) || !ValidID(i.CampaignID) || !ValidID(i.PayerID) {
		return ErrInvalidID
	}
	return i.Amount.Validate()
}

// Matches reports whether c satisfies every set filter field. The Limit
// field is not evaluated here; it applies after filtering and joining.
func (f CampaignFilter) Matches(c Campaign) bool {
	if f.ID != "" && c.ID != f.ID {
		return false
	}
	if f.CategoryID != "" && c.CategoryID != f.CategoryID {
		return false
	}
	if f.OrganizerID != "" && c.OrganizerID != f.OrganizerID {
		return false
	}
	if f.Featured && !c.Featured {
		return false
	}
	if f.SearchText != "" {
		needle := strings.ToLower(f.SearchText)
		title := strings.ToLower(c.Title)
		desc := strings.ToLower(c.Description)
		if !strings.Contains(title, needle) && !strings.Contains(desc, needle) {
			return false
		}
	}
	return true
}
