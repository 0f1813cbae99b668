package domain

type BlacklistStatus string

const (
	BlacklistStatusNone BlacklistStatus = "NONE"
	BlacklistStatusSoft BlacklistStatus = "SOFT" // booking allowed, warning surfaced
	BlacklistStatusHard BlacklistStatus = "HARD" // booking blocked
)

type Customer struct {
	ID              int32           `json:"id"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	BlacklistStatus BlacklistStatus `json:"blacklist_status"`
	BlacklistReason string          `json:"blacklist_reason,omitempty"`
}

// Clearance is the result of the blacklist gate check performed before a
// rental is started.
type Clearance struct {
	CanBook bool   `json:"can_book"`
	Reason  string `json:"reason,omitempty"`
	Warning string `json:"warning,omitempty"`
}
