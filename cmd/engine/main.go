package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/events"
	"autotasker-engine/internal/googleauth"
	"autotasker-engine/internal/httpapi"
	"autotasker-engine/internal/pipeline"
	"autotasker-engine/internal/poll"
	"autotasker-engine/internal/secrets"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "engine",
		Usage: "turn job emails into a tracked spreadsheet and calendar reminders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "directory holding config.yml, the local database and tokens",
				Value:   ".",
				Sources: cli.EnvVars("AUTOTASKER_DATA_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the periodic sync",
				Action: serveAction,
			},
			{
				Name:  "sync",
				Usage: "run one sync and print the summary as JSON",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Usage: "look back this many days (default from config)"},
					&cli.IntFlag{Name: "max", Usage: "fetch at most this many messages (default from config)"},
				},
				Action: syncAction,
			},
			{
				Name:   "auth",
				Usage:  "authorize Google access and save the token",
				Action: authAction,
			},
			{
				Name:  "secret",
				Usage: "store secrets in the OS keychain",
				Commands: []*cli.Command{
					{
						Name:   "set-imap",
						Usage:  "store the IMAP password for the configured account (read from stdin)",
						Action: setIMAPAction,
					},
					{
						Name:   "set-api-key",
						Usage:  "store the classifier API key (read from stdin)",
						Action: setAPIKeyAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	e, err := openEngine(cmd.String("data-dir"), true)
	if err != nil {
		return err
	}
	defer e.Close()

	b, err := e.buildBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	cfg := e.config()
	hub := events.NewHub()
	runner := poll.NewRunner(func(ctx context.Context, p pipeline.Params) (domain.SyncSummary, error) {
		return e.runSync(ctx, b, p)
	}, hub, e.log.Named("poll"))

	poll.StartPoller(ctx, runner, time.Duration(cfg.Sync.IntervalMinutes)*time.Minute, e.params)

	mux := httpapi.NewMux(httpapi.Deps{
		Hub:         hub,
		CfgVal:      &e.cfgVal,
		UserCfgPath: e.cfgPath,
		LoadCfg:     e.loadConfig,
		Runner:      runner,
		Params:      e.params,
		Tracker:     b.tracker,
		Reminders:   b.reminders,
		Mailbox:     b.mailbox,
		StoreID:     httpapi.StoreIDFromConfig(b.tracker, &e.cfgVal),
	})

	token := os.Getenv("AUTOTASKER_SHUTDOWN_TOKEN")
	if token == "" {
		if token, err = randomToken(16); err != nil {
			return err
		}
	}

	srv := &http.Server{ReadHeaderTimeout: 5 * time.Second}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))
	srv.Handler = httpapi.Handler(mux, e.log.Named("http"))

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	e.log.Infow("engine listening", "addr", "http://"+addr, "config", e.cfgPath)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func syncAction(ctx context.Context, cmd *cli.Command) error {
	e, err := openEngine(cmd.String("data-dir"), true)
	if err != nil {
		return err
	}
	defer e.Close()

	b, err := e.buildBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	p := e.params()
	if d := int(cmd.Int("days")); d > 0 {
		p.DaysBack = d
	}
	if m := int(cmd.Int("max")); m > 0 {
		p.MaxResults = m
	}

	sum, err := e.runSync(ctx, b, p)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func authAction(ctx context.Context, cmd *cli.Command) error {
	e, err := openEngine(cmd.String("data-dir"), false)
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := e.config()
	return googleauth.Bootstrap(ctx,
		e.resolve(cfg.Google.CredentialsFile),
		e.resolve(cfg.Google.TokenFile),
		os.Stdin, os.Stdout,
	)
}

func setIMAPAction(ctx context.Context, cmd *cli.Command) error {
	e, err := openEngine(cmd.String("data-dir"), false)
	if err != nil {
		return err
	}
	defer e.Close()

	pw, err := readSecret(os.Stdin, os.Stderr, "IMAP password: ")
	if err != nil {
		return err
	}
	acct := secrets.IMAPKeyringAccount(e.config())
	if err := secrets.SetIMAPPassword(acct, pw); err != nil {
		return err
	}
	e.log.Infow("stored IMAP password", "account", acct)
	return nil
}

func setAPIKeyAction(ctx context.Context, cmd *cli.Command) error {
	key, err := readSecret(os.Stdin, os.Stderr, "API key: ")
	if err != nil {
		return err
	}
	return secrets.SetAPIKey(key)
}

func readSecret(in io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
