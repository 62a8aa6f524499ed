package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults into a copy of cfg and checks it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	lower := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	def := func(s *string, v string) {
		if strings.TrimSpace(*s) == "" {
			*s = v
		}
	}

	// ---- Defaults ----

	if out.App.Port == 0 {
		out.App.Port = 38471
	}
	def(&out.App.LogLevel, "info")
	out.App.LogLevel = lower(out.App.LogLevel)

	if out.Sync.DaysBack == 0 {
		out.Sync.DaysBack = 7
	}
	if out.Sync.MaxResults == 0 {
		out.Sync.MaxResults = 50
	}
	if out.Sync.Workers == 0 {
		out.Sync.Workers = 1
	}
	def(&out.Sync.SheetTitle, "AutoTasker - Job Opportunities")
	def(&out.Sync.SheetTab, "Job Opportunities")

	out.Mailbox.Provider = lower(out.Mailbox.Provider)
	def(&out.Mailbox.Provider, ProviderGmail)
	def(&out.Mailbox.Mailbox, "INBOX")
	if out.Mailbox.Provider == ProviderIMAP && out.Mailbox.IMAPPort == 0 {
		out.Mailbox.IMAPPort = 993
	}

	def(&out.Classifier.Model, "gpt-4o-mini")
	if out.Classifier.MaxTokens == 0 {
		out.Classifier.MaxTokens = 512
	}
	def(&out.Classifier.APIKeyEnv, "OPENAI_API_KEY")

	def(&out.Google.CredentialsFile, "credentials.json")
	def(&out.Google.TokenFile, "token.json")
	def(&out.Google.CalendarID, "primary")

	out.Backends.Tabular = lower(out.Backends.Tabular)
	out.Backends.Calendar = lower(out.Backends.Calendar)
	def(&out.Backends.Tabular, BackendGoogle)
	def(&out.Backends.Calendar, BackendGoogle)

	// ---- Validation rules ----

	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	switch out.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		res.addErr("app.log_level must be one of debug|info|warn|error, got %q", out.App.LogLevel)
	}

	if out.Sync.DaysBack < 1 {
		res.addErr("sync.days_back must be >= 1")
	} else if out.Sync.DaysBack > 90 {
		res.addWarn("sync.days_back is large (%d); a run may fetch many messages.", out.Sync.DaysBack)
	}
	if out.Sync.MaxResults < 1 {
		res.addErr("sync.max_results must be >= 1")
	} else if out.Sync.MaxResults > 500 {
		res.addErr("sync.max_results must be <= 500")
	}
	if out.Sync.IntervalMinutes < 0 {
		res.addErr("sync.interval_minutes must be >= 0")
	} else if out.Sync.IntervalMinutes > 0 && out.Sync.IntervalMinutes < 5 {
		res.addWarn("sync.interval_minutes is very low (%d) and may exhaust API quotas.", out.Sync.IntervalMinutes)
	}
	if out.Sync.Workers < 1 {
		res.addErr("sync.workers must be >= 1")
	} else if out.Sync.Workers > 8 {
		res.addWarn("sync.workers=%d runs many classifier calls at once.", out.Sync.Workers)
	}

	switch out.Mailbox.Provider {
	case ProviderGmail:
	case ProviderIMAP:
		// password is in the keychain, not here
		if strings.TrimSpace(out.Mailbox.IMAPHost) == "" {
			res.addErr("mailbox.imap_host is required when mailbox.provider=imap")
		}
		if strings.TrimSpace(out.Mailbox.Username) == "" {
			res.addErr("mailbox.username is required when mailbox.provider=imap")
		}
	default:
		res.addErr("mailbox.provider must be gmail or imap, got %q", out.Mailbox.Provider)
	}

	if out.Classifier.Temperature < 0 || out.Classifier.Temperature > 2 {
		res.addErr("classifier.temperature must be within 0..2")
	} else if out.Classifier.Temperature > 0.5 {
		res.addWarn("classifier.temperature %.2f is high; extraction may be inconsistent.", out.Classifier.Temperature)
	}
	if out.Classifier.MaxTokens < 1 {
		res.addErr("classifier.max_tokens must be >= 1")
	}
	if out.Classifier.RequestsPerMinute < 0 {
		res.addErr("classifier.requests_per_minute must be >= 0")
	}

	for name, v := range map[string]string{"backends.tabular": out.Backends.Tabular, "backends.calendar": out.Backends.Calendar} {
		if v != BackendGoogle && v != BackendLocal {
			res.addErr("%s must be google or local, got %q", name, v)
		}
	}

	return out, res
}
