package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusApplied   Status = "Applied"
	StatusRejected  Status = "Rejected"
	StatusInterview Status = "Interview"
)

var statuses = []Status{StatusPending, StatusApplied, StatusRejected, StatusInterview}

// ParseStatus accepts the four tracker literals, case-insensitively.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Fallback literals used wherever a classified field is missing.
const (
	Unknown      = "Unknown"
	NotSpecified = "Not specified"
	NoDeadline   = "N/A"
)

// ExtractedEmail is the flattened, length-capped view of one mailbox message.
type ExtractedEmail struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}

type Classification struct {
	Company   string `json:"company"`
	Location  string `json:"location"`
	Salary    string `json:"salary"`
	Deadline  string `json:"deadline"`
	Category  string `json:"category"`
	TechStack string `json:"tech_stack"`
}

func FallbackClassification() Classification {
	return Classification{
		Company:   Unknown,
		Location:  Unknown,
		Salary:    NotSpecified,
		Deadline:  NoDeadline,
		Category:  NotSpecified,
		TechStack: NotSpecified,
	}
}

func (c Classification) HasDeadline() bool {
	d := strings.TrimSpace(c.Deadline)
	return d != "" && d != NoDeadline
}

// JobRecord is one classified job email. Status is the only field changed after the first write.
type JobRecord struct {
	ID          string    `json:"id"`
	ProcessedAt time.Time `json:"processed_at"`
	Status      Status    `json:"status"`
	ExtractedEmail
	Classification
}

// TrackedJob is a job read back from the tracker. Row is its 1-based row address.
type TrackedJob struct {
	Row       int    `json:"id"`
	DateAdded string `json:"date_added"`
	Status    Status `json:"status"`
	Subject   string `json:"subject"`
	Sender    string `json:"sender"`
	Classification
}
