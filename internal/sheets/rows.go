package sheets

import (
	"autotasker-engine/internal/domain"
)

const (
	DefaultTitle = "AutoTasker - Job Opportunities"
	DefaultTab   = "Job Opportunities"

	DataRange   = "A:J"
	HeaderRange = "A1:J1"
	// FirstDataRow is the 1-based address of the first row under the header.
	FirstDataRow = 2
)

var Headers = []string{
	"Company",
	"Location",
	"Salary",
	"Deadline",
	"Category",
	"Tech Stack",
	"Subject",
	"Sender",
	"Date Added",
	"Status",
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ToRow maps a record onto the ten tracker columns.
func ToRow(r domain.JobRecord, dateAdded string) []string {
	return []string{
		or(r.Company, domain.Unknown),
		or(r.Location, domain.Unknown),
		or(r.Salary, domain.NotSpecified),
		or(r.Deadline, domain.NoDeadline),
		or(r.Category, domain.NotSpecified),
		or(r.TechStack, domain.NotSpecified),
		r.Subject,
		r.Sender,
		dateAdded,
		or(string(r.Status), string(domain.StatusPending)),
	}
}

// FromRow reads a tracker row back. Short rows get the same fallbacks.
func FromRow(row int, cells []string) domain.TrackedJob {
	cell := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return domain.TrackedJob{
		Row:       row,
		DateAdded: cell(8),
		Status:    domain.Status(or(cell(9), string(domain.StatusPending))),
		Subject:   cell(6),
		Sender:    cell(7),
		Classification: domain.Classification{
			Company:   or(cell(0), domain.Unknown),
			Location:  or(cell(1), domain.Unknown),
			Salary:    or(cell(2), domain.NotSpecified),
			Deadline:  or(cell(3), domain.NoDeadline),
			Category:  or(cell(4), domain.NotSpecified),
			TechStack: or(cell(5), domain.NotSpecified),
		},
	}
}

func URL(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id
}
