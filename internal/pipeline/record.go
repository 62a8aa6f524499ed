package pipeline

import (
	"time"

	"github.com/google/uuid"

	"autotasker-engine/internal/domain"
)

// NewJobRecord merges an extraction and a classification into a Pending record.
func NewJobRecord(id string, e domain.ExtractedEmail, c domain.Classification, now time.Time) domain.JobRecord {
	if id == "" {
		id = uuid.NewString()
	}
	return domain.JobRecord{
		ID:             id,
		ProcessedAt:    now.UTC(),
		Status:         domain.StatusPending,
		ExtractedEmail: e,
		Classification: c,
	}
}
