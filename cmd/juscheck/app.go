package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nhle/juscheck/internal/credential"
	"github.com/nhle/juscheck/internal/datajud"
	"github.com/nhle/juscheck/internal/httpapi"
	"github.com/nhle/juscheck/internal/lock"
	"github.com/nhle/juscheck/internal/logging"
	"github.com/nhle/juscheck/internal/metrics"
	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/notify"
	"github.com/nhle/juscheck/internal/reconcile"
	"github.com/nhle/juscheck/internal/scheduler"
	"github.com/nhle/juscheck/internal/store"
	"github.com/nhle/juscheck/internal/tracking"
)

// drainTimeout bounds how long a command waits for background work on exit.
const drainTimeout = 2 * time.Minute

// app is the fully wired application.
type app struct {
	cfg       *model.AppConfig
	logger    *slog.Logger
	store     store.Store
	metrics   *metrics.Metrics
	runner    *reconcile.Runner
	scheduler *scheduler.Scheduler
	service   *tracking.Service
	composer  reconcile.Composer

	closers []func() error
}

// newApp loads configuration and builds every component.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, codeError(3, "%v", err)
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, codeError(3, "%v", err)
	}

	if creds, err := credential.Open(); err == nil {
		creds.FillSecrets(cfg)
	} else {
		logger.Debug("keyring unavailable", "error", err)
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	sender, err := a.newSender()
	if err != nil {
		a.close()
		return nil, err
	}
	dispatchOpts := []notify.DispatcherOption{notify.WithRecorder(a.metrics)}
	if copier := notify.NewIMAPCopier(cfg.Mail.SentCopy); copier != nil {
		dispatchOpts = append(dispatchOpts, notify.WithCopier(copier))
	}
	dispatcher := notify.NewDispatcher(sender, st, cfg.Mail.From, logger, dispatchOpts...)

	client := datajud.NewClient(cfg.DataJud, datajud.WithObserver(a.metrics))
	loc := cfg.Display.Location()
	a.composer = reconcile.NewComposer(loc)

	a.runner = reconcile.NewRunner(
		st,
		client,
		dispatcher,
		locker,
		reconcile.NewEngine(loc),
		logger,
		reconcile.WithRecorder(a.metrics),
		reconcile.WithConcurrency(cfg.Scheduler.Concurrency),
	)
	a.scheduler = scheduler.New(a.runner, cfg.Scheduler, logger, scheduler.WithObserver(a.metrics))
	a.service = tracking.NewService(st, client, a.runner, a.scheduler, logger)

	return a, nil
}

func (a *app) newLocker(ctx context.Context) (lock.Locker, error) {
	switch a.cfg.Lock.Backend {
	case "redis":
		l, err := lock.NewRedisLocker(ctx, a.cfg.Lock.RedisURL, a.cfg.Lock.TTL, a.cfg.Lock.Wait)
		if err != nil {
			return nil, fmt.Errorf("connecting lock backend: %w", err)
		}
		a.closers = append(a.closers, l.Close)
		return l, nil
	default:
		return lock.NewKeyedMutex(), nil
	}
}

func (a *app) newSender() (notify.Sender, error) {
	switch a.cfg.Mail.Provider {
	case "smtp":
		if a.cfg.Mail.SMTP.Host == "" {
			return nil, codeError(3, "mail.smtp.host is required for the smtp provider")
		}
		return notify.NewSMTPSender(a.cfg.Mail.SMTP), nil
	case "resend":
		if a.cfg.Mail.Resend.APIKey == "" {
			return nil, codeError(3, "mail.resend.api_key is required for the resend provider")
		}
		return notify.NewResendSender(a.cfg.Mail.Resend), nil
	default:
		return notify.NewLogSender(a.logger), nil
	}
}

func (a *app) handler() *httpapi.Handler {
	return httpapi.New(a.service, a.runner, a.scheduler, a.metrics.Handler(), a.logger)
}

// drain waits for background reconciliations started by the command.
func (a *app) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := a.scheduler.Drain(ctx); err != nil {
		a.logger.Warn("background work did not finish", "error", err)
	}
}

func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("closing resources", "error", err)
	}
}
