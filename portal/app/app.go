package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"zentrix.com/portal/infrastructure/communication"
	"zentrix.com/portal/infrastructure/devops"
	"zentrix.com/portal/infrastructure/filesystem"
	"zentrix.com/portal/portal/core"
	"zentrix.com/portal/portal/store"
	v1 "zentrix.com/portal/sheets/v1"
	"zentrix.com/portal/utils"
)

// App holds the services shared by the server, the CLI and the lambda
type App struct {
	Config     *devops.Config
	Sheets     *v1.SheetsClient
	Notifier   communication.Notifier
	Slots      *core.PendingSlots
	Attendance *core.AttendanceService
	Punches    *core.PunchService
	Travel     *core.TravelEngine
	Advances   *core.AdvanceService
	Directory  *core.Directory

	closers []io.Closer
}

// NewLogger installs the process logger
func NewLogger(cfg *devops.Config) *slog.Logger {
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func New(ctx context.Context, cfg *devops.Config) (*App, error) {
	logger := slog.Default()
	loc := utils.LoadLocation(cfg.TimeZone)

	sheets := v1.NewSheetsClient(v1.Options{
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		FeedURL:       cfg.Sheets.FeedURL,
		GatewayURL:    cfg.Sheets.GatewayURL,
		Timeout:       cfg.Sheets.Timeout,
		AckMode:       v1.AckMode(cfg.Sheets.AckMode),
		Retry: v1.RetryPolicy{
			Attempts:   cfg.Sheets.RetryAttempts,
			Backoff:    cfg.Sheets.RetryBackoff,
			MaxBackoff: cfg.Sheets.MaxBackoff,
		},
		Logger: logger,
	})

	a := &App{Config: cfg, Sheets: sheets}

	notifier := newNotifier(cfg, logger)
	a.Notifier = notifier

	slots, err := a.newSlots(ctx)
	if err != nil {
		return nil, err
	}
	a.Slots = &core.PendingSlots{Primary: slots, Backup: slots}

	attachments, err := newAttachments(ctx, cfg, sheets)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Attendance = &core.AttendanceService{Feed: sheets.Feed, Notifier: notifier, Location: loc}
	a.Punches = &core.PunchService{Attendance: a.Attendance, Writer: sheets.Gateway, Notifier: notifier}
	a.Travel = &core.TravelEngine{
		Feed:        sheets.Feed,
		Writer:      sheets.Gateway,
		Attachments: attachments,
		Slots:       a.Slots,
		Notifier:    notifier,
		Location:    loc,
		Consistency: core.ConsistencyPolicy{
			Interval: cfg.Consistency.Interval,
			Attempts: cfg.Consistency.Attempts,
			Window:   cfg.Consistency.Window,
		},
	}
	a.Advances = &core.AdvanceService{Feed: sheets.Feed, Writer: sheets.Gateway, Notifier: notifier}
	a.Directory = &core.Directory{Feed: sheets.Feed, Writer: sheets.Gateway, Notifier: notifier}
	return a, nil
}

func newNotifier(cfg *devops.Config, logger *slog.Logger) communication.Notifier {
	notifiers := communication.Multi{communication.LogNotifier{Logger: logger}}
	if cfg.Slack.Token != "" {
		notifiers = append(notifiers, communication.NewSlack(cfg.Slack.Token, communication.SlackOption{
			InfoChannelID:  cfg.Slack.InfoChannel,
			ErrorChannelID: cfg.Slack.ErrorChannel,
		}))
	}
	return notifiers
}

// NewEmail builds the SES notifier when recipients are configured
func NewEmail(ctx context.Context, cfg *devops.Config) (*communication.Email, error) {
	if cfg.Email.From == "" || len(cfg.Email.To) == 0 {
		return nil, nil
	}
	return communication.NewEmail(ctx, cfg.Email.From, cfg.Email.To, cfg.Email.Subject)
}

func (a *App) newSlots(ctx context.Context) (core.SlotStore, error) {
	cfg := a.Config
	switch cfg.Pending.Backend {
	case "", "memory":
		return store.NewMemory(), nil
	case "redis":
		r, err := store.NewRedis(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r)
		return r, nil
	case "mysql":
		s, err := store.OpenMySQL(cfg.MySQL.DSN, cfg.MySQL.MaxConnections, store.ParseLogLevel(cfg.MySQL.LogLevel))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil
	}
	return nil, fmt.Errorf("unknown pending store %q", cfg.Pending.Backend)
}

func newAttachments(ctx context.Context, cfg *devops.Config, sheets *v1.SheetsClient) (core.AttachmentStore, error) {
	switch cfg.Attachments.Backend {
	case "", "gateway":
		return core.GatewayAttachments{Gateway: sheets.Gateway, FolderID: cfg.Attachments.FolderID}, nil
	case "s3":
		return filesystem.NewS3Store(ctx, cfg.Attachments.Bucket, cfg.Attachments.Prefix)
	}
	return nil, fmt.Errorf("unknown attachment store %q", cfg.Attachments.Backend)
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
