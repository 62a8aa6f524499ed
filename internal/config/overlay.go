package config

import (
	"os"
	"strconv"
	"strings"
)

// OverlayEnv applies AUTOTASKER_* environment overrides on top of the file config.
func OverlayEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &OverlayError{Key: key, Value: v, Err: err}
		}
		*dst = n
		return nil
	}

	str("AUTOTASKER_DATA_DIR", &cfg.App.DataDir)
	str("AUTOTASKER_LOG_LEVEL", &cfg.App.LogLevel)
	str("AUTOTASKER_MAILBOX_PROVIDER", &cfg.Mailbox.Provider)
	str("AUTOTASKER_CLASSIFIER_MODEL", &cfg.Classifier.Model)
	str("AUTOTASKER_CLASSIFIER_BASE_URL", &cfg.Classifier.BaseURL)

	for key, dst := range map[string]*int{
		"AUTOTASKER_PORT":             &cfg.App.Port,
		"AUTOTASKER_SYNC_DAYS_BACK":   &cfg.Sync.DaysBack,
		"AUTOTASKER_SYNC_MAX_RESULTS": &cfg.Sync.MaxResults,
		"AUTOTASKER_SYNC_INTERVAL":    &cfg.Sync.IntervalMinutes,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

type OverlayError struct {
	Key   string
	Value string
	Err   error
}

func (e *OverlayError) Error() string {
	return "env " + e.Key + "=" + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *OverlayError) Unwrap() error { return e.Err }
