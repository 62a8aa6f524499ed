package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port     int    `yaml:"port" json:"port"`
		DataDir  string `yaml:"data_dir" json:"data_dir"`
		LogLevel string `yaml:"log_level" json:"log_level"`
	} `yaml:"app" json:"app"`

	Sync struct {
		DaysBack        int    `yaml:"days_back" json:"days_back"`
		MaxResults      int    `yaml:"max_results" json:"max_results"`
		IntervalMinutes int    `yaml:"interval_minutes" json:"interval_minutes"`
		Workers         int    `yaml:"workers" json:"workers"`
		SheetTitle      string `yaml:"sheet_title" json:"sheet_title"`
		SheetTab        string `yaml:"sheet_tab" json:"sheet_tab"`
	} `yaml:"sync" json:"sync"`

	Mailbox struct {
		Provider string `yaml:"provider" json:"provider"` // gmail | imap
		IMAPHost string `yaml:"imap_host" json:"imap_host"`
		IMAPPort int    `yaml:"imap_port" json:"imap_port"`
		Username string `yaml:"username" json:"username"`
		Mailbox  string `yaml:"mailbox" json:"mailbox"`
	} `yaml:"mailbox" json:"mailbox"`

	Classifier struct {
		Model             string  `yaml:"model" json:"model"`
		Temperature       float64 `yaml:"temperature" json:"temperature"`
		MaxTokens         int     `yaml:"max_tokens" json:"max_tokens"`
		RequestsPerMinute int     `yaml:"requests_per_minute" json:"requests_per_minute"`
		APIKeyEnv         string  `yaml:"api_key_env" json:"api_key_env"`
		BaseURL           string  `yaml:"base_url" json:"base_url"`
	} `yaml:"classifier" json:"classifier"`

	Google struct {
		CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
		TokenFile       string `yaml:"token_file" json:"token_file"`
		CalendarID      string `yaml:"calendar_id" json:"calendar_id"`
	} `yaml:"google" json:"google"`

	Backends struct {
		Tabular  string `yaml:"tabular" json:"tabular"`   // google | local
		Calendar string `yaml:"calendar" json:"calendar"` // google | local
	} `yaml:"backends" json:"backends"`
}

const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"

	BackendGoogle = "google"
	BackendLocal  = "local"
)

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// NeedsGoogle reports whether any configured component talks to Google APIs.
func (c Config) NeedsGoogle() bool {
	return c.Mailbox.Provider == ProviderGmail ||
		c.Backends.Tabular == BackendGoogle ||
		c.Backends.Calendar == BackendGoogle
}
