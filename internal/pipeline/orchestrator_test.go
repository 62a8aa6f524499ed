package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotasker-engine/internal/classify"
	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/mailbox"
	"autotasker-engine/internal/pipeline"
	"autotasker-engine/internal/reminders"
	"autotasker-engine/internal/sheets"
	"autotasker-engine/internal/testutil"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// oracleByCompany answers with a classification whose company is the first word
// of the subject and whose deadline is looked up in deadlines.
func oracleByCompany(deadlines map[string]string) classify.Oracle {
	return classify.OracleFunc(func(_ context.Context, req classify.Request) (string, error) {
		line := req.Prompt[strings.Index(req.Prompt, "Subject: ")+len("Subject: "):]
		company := strings.Fields(line)[0]
		d, ok := deadlines[company]
		if !ok {
			d = "N/A"
		}
		return fmt.Sprintf(`{"company":%q,"location":"Remote","salary":"Not specified","deadline":%q,"category":"Engineer","tech_stack":"Go"}`, company, d), nil
	})
}

type harness struct {
	mail   *testutil.FakeMailbox
	tab    *testutil.MemorySheets
	cal    *testutil.FakeCalendar
	sync   *sheets.Syncer
	store  string
	stages []pipeline.Stage
	orch   *pipeline.Orchestrator
}

func newHarness(t *testing.T, oracle classify.Oracle, workers int, msgs ...mailbox.RawMessage) *harness {
	t.Helper()
	h := &harness{
		mail: testutil.NewFakeMailbox(msgs...),
		tab:  testutil.NewMemorySheets(),
		cal:  testutil.NewFakeCalendar(),
	}
	h.sync = sheets.New(h.tab, nil, sheets.WithClock(clock))
	id, err := h.sync.EnsureStore(context.Background(), sheets.DefaultTitle)
	require.NoError(t, err)
	h.store = id

	var mu sync.Mutex
	h.orch = pipeline.New(pipeline.Deps{
		Mailbox:    h.mail,
		Classifier: classify.NewAdapter(oracle, nil),
		Tabular:    h.sync,
		Reminders: reminders.NewScheduler(h.cal, nil,
			reminders.WithLocation(time.UTC),
			reminders.WithClock(clock)),
		StoreID: id,
		Workers: workers,
		Now:     clock,
		OnStage: func(s pipeline.Stage) {
			mu.Lock()
			h.stages = append(h.stages, s)
			mu.Unlock()
		},
	})
	return h
}

func threeMessages() []mailbox.RawMessage {
	return []mailbox.RawMessage{
		testutil.PlainMessage("m1", "Acme is hiring", "hr@acme.test", "Backend position open"),
		testutil.PlainMessage("m2", "Dinner plans", "friend@x.test", "tacos tonight?"),
		testutil.PlainMessage("m3", "Beta internship", "talent@beta.test", "Apply now"),
	}
}

var defaultParams = pipeline.Params{DaysBack: 7, MaxResults: 50}

func TestScenarioA_FilterAndClassify(t *testing.T) {
	h := newHarness(t, oracleByCompany(nil), 1, threeMessages()...)

	sum, err := h.orch.Run(context.Background(), defaultParams)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.FetchedCount)
	assert.Equal(t, 2, sum.AddedCount)
	assert.Zero(t, sum.EventsCreated)
	assert.Empty(t, sum.Errors)

	rows := h.tab.Rows(h.store)
	require.Len(t, rows, 3)
	assert.Equal(t, "Acme", rows[1][0])
	assert.Equal(t, "Beta", rows[2][0])
	assert.Equal(t, "Pending", rows[1][9])

	assert.Equal(t, []pipeline.Stage{
		pipeline.StageIdle, pipeline.StageFetching, pipeline.StageFiltering,
		pipeline.StageClassifying, pipeline.StageWriting, pipeline.StageScheduling,
		pipeline.StageDone,
	}, h.stages)

	require.Len(t, h.mail.Queries, 1)
	assert.Equal(t, now.AddDate(0, 0, -7), h.mail.Queries[0].After)
}

func TestScenarioB_OneFutureDeadline(t *testing.T) {
	h := newHarness(t, oracleByCompany(map[string]string{"Acme": "12/31/2099"}), 1, threeMessages()...)

	sum, err := h.orch.Run(context.Background(), defaultParams)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.AddedCount)
	assert.Equal(t, 1, sum.EventsCreated)
	assert.Empty(t, sum.Errors)

	evs := h.cal.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "Apply to Acme - Engineer", evs[0].Title)
	assert.Equal(t, "2099-12-31", evs[0].Start)
}

func TestScenarioC_AppendFailureIsFatal(t *testing.T) {
	h := newHarness(t, oracleByCompany(nil), 1, threeMessages()...)
	h.tab.AppendErr = errors.New("sheets: 503 backend unavailable")

	sum, err := h.orch.Run(context.Background(), defaultParams)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSyncWrite))
	assert.Contains(t, err.Error(), "503 backend unavailable")
	assert.Equal(t, domain.SyncSummary{}, sum)
	assert.Empty(t, h.cal.Events())
	assert.NotContains(t, h.stages, pipeline.StageScheduling)
}

func TestFetchFailureIsFatal(t *testing.T) {
	h := newHarness(t, oracleByCompany(nil), 1)
	h.mail.SearchErr = errors.New("oauth2: token expired")

	_, err := h.orch.Run(context.Background(), defaultParams)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))
	assert.Contains(t, err.Error(), "token expired")
	assert.Zero(t, h.tab.Appends)
}

func TestNoRelevantMessagesFinishesEarly(t *testing.T) {
	h := newHarness(t, oracleByCompany(nil), 1,
		testutil.PlainMessage("m1", "Dinner", "a@b.test", "tacos"))

	sum, err := h.orch.Run(context.Background(), defaultParams)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncSummary{Errors: []domain.ItemError{}}, sum)
	assert.Zero(t, h.tab.Appends)
	assert.Equal(t, []pipeline.Stage{
		pipeline.StageIdle, pipeline.StageFetching, pipeline.StageFiltering, pipeline.StageDone,
	}, h.stages)
}

// Running twice over the same window appends every row again.
func TestRepeatedRunsDuplicateRows(t *testing.T) {
	h := newHarness(t, oracleByCompany(nil), 1, threeMessages()...)

	for i := 0; i < 2; i++ {
		_, err := h.orch.Run(context.Background(), defaultParams)
		require.NoError(t, err)
	}

	jobs, err := h.sync.ReadRows(context.Background(), h.store)
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	assert.Equal(t, jobs[0].Classification, jobs[2].Classification)
	assert.Equal(t, jobs[1].Classification, jobs[3].Classification)
	assert.Equal(t, []int{2, 3, 4, 5}, []int{jobs[0].Row, jobs[1].Row, jobs[2].Row, jobs[3].Row})
}

func TestPerItemFailuresDoNotAbort(t *testing.T) {
	broken := testutil.PlainMessage("m4", "Gamma job", "x@gamma.test", "")
	broken.Payload = nil
	msgs := append(threeMessages(), broken,
		testutil.PlainMessage("m5", "Delta opening", "d@delta.test", "role"),
		testutil.PlainMessage("m6", "Omega career fair", "o@omega.test", "details"),
	)

	oracle := oracleByCompany(map[string]string{"Acme": "12/31/2099", "Delta": "12/31/2099"})
	failing := classify.OracleFunc(func(ctx context.Context, req classify.Request) (string, error) {
		if strings.Contains(req.Prompt, "Subject: Omega") {
			return "", errors.New("model overloaded")
		}
		return oracle.Complete(ctx, req)
	})

	h := newHarness(t, failing, 1, msgs...)
	h.mail.GetErr["m3"] = errors.New("transient")
	h.cal.FailTitles["Apply to Delta - Engineer"] = errors.New("calendar quota")

	sum, err := h.orch.Run(context.Background(), defaultParams)
	require.NoError(t, err)

	// m2 filtered, m3 unreachable, m4 unextractable
	assert.Equal(t, 3, sum.FetchedCount)
	assert.Equal(t, 3, sum.AddedCount)
	assert.Equal(t, 1, sum.EventsCreated)
	assert.Equal(t, []domain.ItemError{{ItemID: "m5", Reason: "calendar quota"}}, sum.Errors)

	rows := h.tab.Rows(h.store)
	require.Len(t, rows, 4)
	assert.Equal(t, "Unknown", rows[3][0])
	assert.Equal(t, "Omega career fair", rows[3][6])
}

func TestParallelWorkersPreserveOrder(t *testing.T) {
	var msgs []mailbox.RawMessage
	var want []string
	for i := 0; i < 20; i++ {
		c := fmt.Sprintf("Co%02d", i)
		want = append(want, c)
		msgs = append(msgs, testutil.PlainMessage(fmt.Sprint("m", i), c+" hiring", "hr@x.test", "job"))
	}

	base := oracleByCompany(nil)
	slowFirst := classify.OracleFunc(func(ctx context.Context, req classify.Request) (string, error) {
		if strings.Contains(req.Prompt, "Subject: Co00") {
			time.Sleep(20 * time.Millisecond)
		}
		return base.Complete(ctx, req)
	})

	h := newHarness(t, slowFirst, 4, msgs...)
	sum, err := h.orch.Run(context.Background(), defaultParams)
	require.NoError(t, err)
	assert.Equal(t, 20, sum.AddedCount)

	var got []string
	for _, r := range h.tab.Rows(h.store)[1:] {
		got = append(got, r[0])
	}
	assert.Equal(t, want, got)
}

func TestMaxResultsBoundsFetch(t *testing.T) {
	h := newHarness(t, oracleByCompany(nil), 1, threeMessages()...)
	sum, err := h.orch.Run(context.Background(), pipeline.Params{DaysBack: 1, MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.AddedCount)
}

func TestInvalidParams(t *testing.T) {
	h := newHarness(t, oracleByCompany(nil), 1)
	for _, p := range []pipeline.Params{{DaysBack: 0, MaxResults: 5}, {DaysBack: 3, MaxResults: 0}} {
		_, err := h.orch.Run(context.Background(), p)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	}
	assert.Empty(t, h.mail.Queries)
}

func TestCancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := newHarness(t, oracleByCompany(nil), 1, threeMessages()...)
	h.orch = pipeline.New(pipeline.Deps{
		Mailbox:    h.mail,
		Classifier: classify.NewAdapter(oracleByCompany(nil), nil),
		Tabular:    h.sync,
		StoreID:    h.store,
		Now:        clock,
		OnStage: func(s pipeline.Stage) {
			if s == pipeline.StageClassifying {
				cancel()
			}
		},
	})

	_, err := h.orch.Run(ctx, defaultParams)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, h.tab.Appends)
}

func TestNewJobRecord(t *testing.T) {
	e := domain.ExtractedEmail{Subject: "s"}
	c := domain.FallbackClassification()

	r := pipeline.NewJobRecord("abc", e, c, now)
	assert.Equal(t, "abc", r.ID)
	assert.Equal(t, now, r.ProcessedAt)
	assert.Equal(t, domain.StatusPending, r.Status)
	assert.Equal(t, e, r.ExtractedEmail)
	assert.Equal(t, c, r.Classification)

	generated := pipeline.NewJobRecord("", e, c, now)
	assert.Len(t, generated.ID, 36)
}
