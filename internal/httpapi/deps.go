package httpapi

import (
	"context"
	"sync/atomic"

	"autotasker-engine/internal/config"
	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/events"
	"autotasker-engine/internal/mailbox"
	"autotasker-engine/internal/pipeline"
	"autotasker-engine/internal/poll"
	"autotasker-engine/internal/reminders"
)

// Tracker is the job sheet as seen by the API.
type Tracker interface {
	EnsureStore(ctx context.Context, title string) (string, error)
	ReadRows(ctx context.Context, storeID string) ([]domain.TrackedJob, error)
	UpdateStatus(ctx context.Context, storeID string, row int, status string) error
}

type Reminders interface {
	Schedule(ctx context.Context, jobs []domain.JobRecord) reminders.Outcome
	Upcoming(ctx context.Context) ([]domain.CalendarEvent, error)
	Remove(ctx context.Context, id string) error
}

type Deps struct {
	Hub *events.Hub

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Runner    *poll.Runner
	Params    func() pipeline.Params
	Tracker   Tracker
	Reminders Reminders
	Mailbox   mailbox.Provider

	// StoreID resolves the spreadsheet the jobs endpoints read and write.
	StoreID func(ctx context.Context) (string, error)

	// SetAPIKey persists the classifier key (keychain in production).
	SetAPIKey func(key string) error
}
