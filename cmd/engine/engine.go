package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"autotasker-engine/internal/classify"
	"autotasker-engine/internal/config"
	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/googleauth"
	"autotasker-engine/internal/logging"
	"autotasker-engine/internal/mailbox"
	"autotasker-engine/internal/pipeline"
	"autotasker-engine/internal/reminders"
	"autotasker-engine/internal/secrets"
	"autotasker-engine/internal/sheets"
	"autotasker-engine/internal/store"
)

// engine holds what every command needs: config, logger and, when taken, the instance lock.
type engine struct {
	cfgPath string
	cfgVal  atomic.Value // config.Config
	log     *zap.SugaredLogger
	zl      *zap.Logger
	lock    *flock.Flock
	db      *store.DB
}

func openEngine(dataDir string, exclusive bool) (*engine, error) {
	cfgPath, err := config.EnsureUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("config bootstrap failed: %w", err)
	}

	e := &engine{cfgPath: cfgPath}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	e.cfgVal.Store(cfg)

	zl, err := logging.New(cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}
	e.zl = zl
	e.log = zl.Sugar()

	if exclusive {
		lock := flock.New(filepath.Join(dataDir, "engine.lock"))
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock data dir: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("another engine is running on %s", dataDir)
		}
		e.lock = lock
	}
	return e, nil
}

func (e *engine) Close() {
	_ = e.db.Close()
	if e.lock != nil {
		_ = e.lock.Unlock()
	}
	if e.zl != nil {
		_ = e.zl.Sync()
	}
}

// loadConfig reads the user file, applies env overrides and defaults.
func (e *engine) loadConfig() (config.Config, error) {
	cfg, err := config.Load(e.cfgPath)
	if err != nil {
		return cfg, err
	}
	if err := config.OverlayEnv(&cfg, nil); err != nil {
		return cfg, err
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		return cfg, errors.New("invalid config:\n- " + strings.Join(vr.Errors, "\n- "))
	}
	return cfg, nil
}

func (e *engine) config() config.Config {
	return e.cfgVal.Load().(config.Config)
}

// stateDir holds the database and token files.
func (e *engine) stateDir() string {
	if d := strings.TrimSpace(e.config().App.DataDir); d != "" {
		return d
	}
	return filepath.Dir(e.cfgPath)
}

func (e *engine) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.stateDir(), p)
}

func (e *engine) params() pipeline.Params {
	cfg := e.config()
	return pipeline.Params{DaysBack: cfg.Sync.DaysBack, MaxResults: cfg.Sync.MaxResults}
}

func (e *engine) openDB() (*store.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	db, err := store.Open(filepath.Join(e.stateDir(), "autotasker.db"))
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	e.db = db
	return db, nil
}

type backends struct {
	mailbox   mailbox.Provider
	tracker   *sheets.Syncer
	reminders *reminders.Scheduler
	closers   []func() error
}

func (b *backends) Close() {
	for _, c := range b.closers {
		_ = c()
	}
}

func (e *engine) buildBackends(ctx context.Context) (*backends, error) {
	cfg := e.config()
	b := &backends{}

	var client *http.Client
	if cfg.NeedsGoogle() {
		c, err := googleauth.Client(ctx, e.resolve(cfg.Google.CredentialsFile), e.resolve(cfg.Google.TokenFile))
		if err != nil {
			return nil, err
		}
		client = c
	}

	switch cfg.Mailbox.Provider {
	case config.ProviderIMAP:
		host := cfg.Mailbox.IMAPHost
		p := mailbox.NewIMAPProvider(mailbox.IMAPConfig{
			Addr:     net.JoinHostPort(host, strconv.Itoa(cfg.Mailbox.IMAPPort)),
			Username: cfg.Mailbox.Username,
			Mailbox:  cfg.Mailbox.Mailbox,
			TLS:      &tls.Config{ServerName: host},
			Password: func() (string, error) {
				return secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(e.config()))
			},
		}, e.log.Named("imap"))
		b.mailbox = p
		b.closers = append(b.closers, p.Close)
	default:
		p, err := mailbox.NewGmailProvider(ctx, client)
		if err != nil {
			return nil, err
		}
		b.mailbox = p
	}

	var tab sheets.Backend
	if cfg.Backends.Tabular == config.BackendLocal {
		db, err := e.openDB()
		if err != nil {
			return nil, err
		}
		tab = sheets.NewLocalBackend(db.Pool)
	} else {
		g, err := sheets.NewGoogleBackend(ctx, client)
		if err != nil {
			return nil, err
		}
		tab = g
	}
	b.tracker = sheets.New(tab, e.log.Named("sheets"), sheets.WithTab(cfg.Sync.SheetTab))

	var cal reminders.Calendar
	if cfg.Backends.Calendar == config.BackendLocal {
		db, err := e.openDB()
		if err != nil {
			return nil, err
		}
		cal = reminders.NewLocalCalendar(db.Pool, cfg.Google.CalendarID)
	} else {
		g, err := reminders.NewGoogleCalendar(ctx, client, cfg.Google.CalendarID)
		if err != nil {
			return nil, err
		}
		cal = g
	}
	b.reminders = reminders.NewScheduler(cal, e.log.Named("reminders"))

	return b, nil
}

// newClassifier is built per run so a changed key or model applies without a restart.
func (e *engine) newClassifier(cfg config.Config) (*classify.Adapter, error) {
	key, err := secrets.APIKey(cfg, os.Getenv)
	if err != nil {
		return nil, err
	}
	oracle, err := classify.NewOpenAIOracle(key, cfg.Classifier.Model, cfg.Classifier.BaseURL)
	if err != nil {
		return nil, err
	}
	return classify.NewAdapter(
		classify.NewLimitedOracle(oracle, cfg.Classifier.RequestsPerMinute),
		e.log.Named("classifier"),
		classify.WithGeneration(cfg.Classifier.Temperature, cfg.Classifier.MaxTokens),
	), nil
}

func (e *engine) runSync(ctx context.Context, b *backends, p pipeline.Params) (domain.SyncSummary, error) {
	cfg := e.config()

	clf, err := e.newClassifier(cfg)
	if err != nil {
		return domain.SyncSummary{}, err
	}

	storeID, err := b.tracker.EnsureStore(ctx, cfg.Sync.SheetTitle)
	if err != nil {
		return domain.SyncSummary{}, fmt.Errorf("%w: ensure store: %w", domain.ErrSyncWrite, err)
	}

	log := e.log.Named("pipeline")
	orch := pipeline.New(pipeline.Deps{
		Mailbox:    b.mailbox,
		Filter:     mailbox.NewRelevanceFilter(),
		Classifier: clf,
		Tabular:    b.tracker,
		Reminders:  b.reminders,
		StoreID:    storeID,
		Workers:    cfg.Sync.Workers,
		Log:        log,
		OnStage:    func(s pipeline.Stage) { log.Debugw("stage", "stage", s) },
	})
	return orch.Run(ctx, p)
}
