// Package tracking implements the user-facing operations on tracked
// processes: registration, edits, removal, lookup and reporting.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/juscheck/internal/cnj"
	"github.com/nhle/juscheck/internal/datajud"
	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/reconcile"
	"github.com/nhle/juscheck/internal/store"
	"github.com/nhle/juscheck/internal/tribunal"
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// bulkConcurrency bounds registry fetches during bulk registration.
const bulkConcurrency = 4

// Fetcher returns the registry's current view of a process.
type Fetcher interface {
	Fetch(ctx context.Context, number string) (*datajud.Snapshot, error)
}

// Reconciler runs a single reconciliation pass.
type Reconciler interface {
	ReconcileOne(ctx context.Context, id int64, firstCheck bool) (reconcile.Result, error)
}

// Background runs detached work that outlives the triggering request.
type Background interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context))
}

// Service coordinates the store, the registry and the reconciler.
type Service struct {
	store      store.Store
	fetcher    Fetcher
	reconciler Reconciler
	background Background
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(
	st store.Store,
	fetcher Fetcher,
	reconciler Reconciler,
	background Background,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:      st,
		fetcher:    fetcher,
		reconciler: reconciler,
		background: background,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterRequest subscribes an email to a process.
type RegisterRequest struct {
	Number   string `json:"number"`
	Email    string `json:"email"`
	Label    string `json:"label,omitempty"`
	Priority string `json:"priority,omitempty"`

	// Notify queues a first check, which sends the welcome message.
	Notify bool `json:"notify"`
}

// RegisterResult is the outcome of one registration.
type RegisterResult struct {
	Number  string                `json:"number"`
	Process *model.TrackedProcess `json:"process,omitempty"`
	Queued  bool                  `json:"queued"`
	Error   string                `json:"error,omitempty"`
}

// Register validates the request, seeds state from the registry and stores
// the subscription. Registering an existing (email, number) pair refreshes
// label and priority only.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	number, err := cnj.Parse(req.Number)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	p := model.TrackedProcess{
		Number:   number,
		Email:    email,
		Priority: strings.TrimSpace(req.Priority),
	}
	if label := strings.TrimSpace(req.Label); label != "" {
		p.Label = &label
	}
	s.seed(ctx, &p)

	created, inserted, err := s.store.CreateProcess(ctx, p)
	if err != nil {
		return nil, err
	}

	// An existing subscription keeps its reconciliation state; a first check
	// there would overwrite the baseline and swallow pending movements.
	res := &RegisterResult{Number: number, Process: created}
	if req.Notify && inserted {
		s.queueFirstCheck(ctx, created.ID)
		res.Queued = true
	}

	s.logger.InfoContext(ctx, "process registered",
		"process_id", created.ID,
		"number", number,
		"movement_count", created.LastMovementCount,
		"new", inserted,
	)
	return res, nil
}

// seed fills the initial state from the registry. Any fetch failure leaves
// the zero state; registration never depends on the registry.
func (s *Service) seed(ctx context.Context, p *model.TrackedProcess) {
	snap, err := s.fetcher.Fetch(ctx, p.Number)
	if err != nil {
		level := slog.LevelInfo
		if !datajud.IsUnavailable(err) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "registry fetch failed during registration",
			"number", p.Number,
			"error", err,
		)
		return
	}

	p.LastMovementCount = snap.Count()
	if latest, ok := snap.Latest(); ok {
		desc := latest.Description
		p.LastMovementDescription = &desc
		if !latest.At.IsZero() {
			at := latest.At
			p.LastMovementAt = &at
		}
	}
	checked := s.now()
	p.LastCheckedAt = &checked
}

// RegisterMany registers each request independently. One failure never
// affects the others; results follow the order of reqs.
func (s *Service) RegisterMany(ctx context.Context, reqs []RegisterRequest) []RegisterResult {
	results := make([]RegisterResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(bulkConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Register(ctx, req)
			if err != nil {
				results[i] = RegisterResult{Number: cnj.Normalize(req.Number), Error: err.Error()}
				return nil
			}
			results[i] = *res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// List returns every tracked process, favorites first.
func (s *Service) List(ctx context.Context) ([]model.ProcessSummary, error) {
	return s.store.ListProcesses(ctx)
}

// Get returns a single tracked process.
func (s *Service) Get(ctx context.Context, id int64) (*model.TrackedProcess, error) {
	return s.store.GetProcess(ctx, id)
}

// UpdateMetadata edits recipient, label or priority.
func (s *Service) UpdateMetadata(ctx context.Context, id int64, upd store.MetadataUpdate) error {
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return err
		}
		upd.Email = &email
	}
	return s.store.UpdateMetadata(ctx, id, upd)
}

func (s *Service) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	return s.store.SetFavorite(ctx, id, favorite)
}

// Remove deletes processes with their history. It returns how many existed.
func (s *Service) Remove(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no ids given", ErrInvalidInput)
	}
	n, err := s.store.DeleteProcesses(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "processes removed", "requested", len(ids), "removed", n)
	return n, nil
}

// ResendConfirmation queues a first check so the welcome message is sent
// again with the current state.
func (s *Service) ResendConfirmation(ctx context.Context, id int64) error {
	if _, err := s.store.GetProcess(ctx, id); err != nil {
		return err
	}
	s.queueFirstCheck(ctx, id)
	return nil
}

// Check runs a synchronous reconciliation.
func (s *Service) Check(ctx context.Context, id int64, firstCheck bool) (reconcile.Result, error) {
	return s.reconciler.ReconcileOne(ctx, id, firstCheck)
}

func (s *Service) queueFirstCheck(ctx context.Context, id int64) {
	s.background.Go(ctx, "first-check", func(ctx context.Context) {
		// The runner logs failures with the process id.
		_, _ = s.reconciler.ReconcileOne(ctx, id, true)
	})
}

// LookupResult is a registry view of a process that is not necessarily
// tracked.
type LookupResult struct {
	Number    string                `json:"number"`
	Formatted string                `json:"formatted"`
	Court     *tribunal.Info        `json:"court,omitempty"`
	Link      tribunal.ExternalLink `json:"link"`
	Snapshot  *datajud.Snapshot     `json:"snapshot"`
}

// Lookup fetches a process from the registry without tracking it.
func (s *Service) Lookup(ctx context.Context, number string) (*LookupResult, error) {
	digits, err := cnj.Parse(number)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	snap, err := s.fetcher.Fetch(ctx, digits)
	if err != nil {
		return nil, err
	}

	res := &LookupResult{
		Number:    digits,
		Formatted: cnj.Format(digits),
		Link:      tribunal.ExternalURL(digits),
		Snapshot:  snap,
	}
	if info, ok := tribunal.Describe(digits); ok {
		res.Court = &info
	}
	return res, nil
}

// History returns the recorded movements of a process, newest first.
func (s *Service) History(ctx context.Context, id int64) ([]model.MovementRecord, error) {
	if _, err := s.store.GetProcess(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListMovements(ctx, id)
}

// Notifications returns the notifications sent for a process, newest first.
func (s *Service) Notifications(ctx context.Context, id int64) ([]model.NotificationEvent, error) {
	if _, err := s.store.GetProcess(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListNotifications(ctx, id)
}

// Dashboard summarizes the trailing window of days.
func (s *Service) Dashboard(ctx context.Context, days int) (*model.DashboardMetrics, error) {
	m, err := s.store.DashboardMetrics(ctx, days, s.now())
	if errors.Is(err, store.ErrInvalidWindow) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return m, err
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("%w: email %q", ErrInvalidInput, raw)
	}
	return addr.Address, nil
}
