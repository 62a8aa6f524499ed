package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"autotasker-engine/internal/classify"
	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/mailbox"
	"autotasker-engine/internal/reminders"
	"autotasker-engine/internal/sheets"
)

const (
	DefaultDaysBack   = 7
	DefaultMaxResults = 50
)

type Classifier interface {
	Classify(ctx context.Context, subject, body string) classify.Result
}

type Filter interface {
	Relevant(e domain.ExtractedEmail) bool
}

type Tabular interface {
	AppendRows(ctx context.Context, storeID string, recs []domain.JobRecord) (sheets.AppendResult, error)
}

type Reminders interface {
	Schedule(ctx context.Context, jobs []domain.JobRecord) reminders.Outcome
}

type Deps struct {
	Mailbox    mailbox.Provider
	Filter     Filter
	Classifier Classifier
	Tabular    Tabular
	Reminders  Reminders

	// StoreID is the spreadsheet resolved by EnsureStore.
	StoreID string
	// Workers bounds concurrent classifications; 0 or 1 is sequential.
	Workers int

	Log     *zap.SugaredLogger
	Now     func() time.Time
	OnStage func(Stage)
}

type Params struct {
	DaysBack   int `json:"days_back"`
	MaxResults int `json:"max_results"`
}

// Orchestrator runs fetch, filter, classify, write and schedule once per call.
type Orchestrator struct {
	d Deps
}

func New(d Deps) *Orchestrator {
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Filter == nil {
		d.Filter = mailbox.NewRelevanceFilter()
	}
	if d.Workers < 1 {
		d.Workers = 1
	}
	return &Orchestrator{d: d}
}

func (o *Orchestrator) enter(s Stage) {
	o.d.Log.Debugw("stage", "stage", s)
	if o.d.OnStage != nil {
		o.d.OnStage(s)
	}
}

type candidate struct {
	id    string
	email domain.ExtractedEmail
}

// Run returns an error only for invalid params, cancellation, a failed mailbox
// search (ErrFetch) or a failed append (ErrSyncWrite). Everything else is per item.
func (o *Orchestrator) Run(ctx context.Context, p Params) (domain.SyncSummary, error) {
	if p.DaysBack < 1 || p.MaxResults < 1 {
		return domain.SyncSummary{}, fmt.Errorf("%w: days_back and max_results must be >= 1", domain.ErrInvalidArgument)
	}
	if o.d.StoreID == "" {
		return domain.SyncSummary{}, fmt.Errorf("%w: no spreadsheet id", domain.ErrInvalidArgument)
	}

	summary := domain.SyncSummary{Errors: []domain.ItemError{}}
	o.enter(StageIdle)

	o.enter(StageFetching)
	emails, err := o.fetch(ctx, p)
	if err != nil {
		return domain.SyncSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.SyncSummary{}, err
	}

	o.enter(StageFiltering)
	relevant := emails[:0]
	for _, c := range emails {
		if o.d.Filter.Relevant(c.email) {
			relevant = append(relevant, c)
		}
	}
	o.d.Log.Infow("filtered", "fetched", len(emails), "relevant", len(relevant))
	summary.FetchedCount = len(relevant)
	if len(relevant) == 0 {
		o.enter(StageDone)
		return summary, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.SyncSummary{}, err
	}

	o.enter(StageClassifying)
	records := o.classify(ctx, relevant)
	if err := ctx.Err(); err != nil {
		return domain.SyncSummary{}, err
	}

	o.enter(StageWriting)
	res, err := o.d.Tabular.AppendRows(ctx, o.d.StoreID, records)
	if err != nil {
		return domain.SyncSummary{}, fmt.Errorf("%w: %w", domain.ErrSyncWrite, err)
	}
	summary.AddedCount = res.Added
	if err := ctx.Err(); err != nil {
		return domain.SyncSummary{}, err
	}

	o.enter(StageScheduling)
	var withDeadline []domain.JobRecord
	for _, r := range records {
		if r.HasDeadline() {
			withDeadline = append(withDeadline, r)
		}
	}
	if len(withDeadline) > 0 && o.d.Reminders != nil {
		out := o.d.Reminders.Schedule(ctx, withDeadline)
		summary.EventsCreated = len(out.Created)
		summary.Errors = append(summary.Errors, out.Errors...)
	}

	o.enter(StageDone)
	o.d.Log.Infow("sync complete",
		"fetched", summary.FetchedCount,
		"added", summary.AddedCount,
		"events", summary.EventsCreated,
		"errors", len(summary.Errors),
	)
	return summary, nil
}

// fetch searches once, then gets and extracts each message. A message that cannot
// be fetched or extracted is logged and dropped.
func (o *Orchestrator) fetch(ctx context.Context, p Params) ([]candidate, error) {
	q, err := mailbox.BuildQuery(p.DaysBack, o.d.Now())
	if err != nil {
		return nil, err
	}
	ids, err := o.d.Mailbox.Search(ctx, q, p.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	o.d.Log.Infow("searched mailbox", "query", q.String(), "count", len(ids))

	out := make([]candidate, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := o.d.Mailbox.Get(ctx, id)
		if err != nil {
			o.d.Log.Warnw("get message failed", "id", id, "err", err)
			continue
		}
		ex := mailbox.Extract(raw)
		if !ex.OK() {
			o.d.Log.Warnw("extraction failed", "id", id, "reason", ex.Reason)
			continue
		}
		out = append(out, candidate{id: id, email: ex.Email})
	}
	return out, nil
}

// classify fills one slot per candidate, so output order matches input order.
// Tasks never return an error, so one failure cannot cancel the others.
func (o *Orchestrator) classify(ctx context.Context, cs []candidate) []domain.JobRecord {
	out := make([]domain.JobRecord, len(cs))

	var g errgroup.Group
	g.SetLimit(o.d.Workers)
	for i, c := range cs {
		g.Go(func() error {
			res := o.d.Classifier.Classify(ctx, c.email.Subject, c.email.Body)
			out[i] = NewJobRecord(c.id, c.email, res.Classification, o.d.Now())
			return nil
		})
	}
	_ = g.Wait()
	return out
}
