// Package poller tracks server-side asynchronous jobs to completion by
// polling the DSR job API at a fixed interval.
//
// Each poll loop is scoped to a project: starting a new loop for a project
// cancels the previous one, so at most one active poller per project exists
// at any time and a superseded loop never fires another callback. Commits
// are additionally gated behind a per-project fence token, so a slow response
// from an old loop can never overwrite the state of a newer one.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dsr-inc/jobtrack/internal/fence"
	"github.com/dsr-inc/jobtrack/internal/jobapi"
	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/model"
)

const (
	defaultInterval             = 3 * time.Second
	defaultMaxConsecutiveErrors = 5
)

// Callbacks receive job tracking events.
//
// Callbacks are invoked synchronously from the polling goroutine while the
// poller's internal lock is held, which is what guarantees that no callback
// fires after Cancel returns. Because of that, callbacks must not call back
// into the Poller.
type Callbacks struct {
	// OnProgress is invoked on every intermediate status tick with the
	// server-reported progress (0-100) and current step description.
	// Progress values are forwarded as-is; monotonicity is the server's
	// contract.
	OnProgress func(progress int, currentStep string)

	// OnComplete is invoked exactly once when the job completes, with the
	// opaque result payload.
	OnComplete func(result []byte)

	// OnError is invoked exactly once when the job fails server-side, or
	// when the poller gives up after too many consecutive transport
	// failures.
	OnError func(message string)
}

// Config is the configuration for the Poller.
type Config struct {
	// Client is the job API client used to poll status.
	Client jobapi.Client
	// Interval is the delay between status checks. Default: 3s.
	Interval time.Duration
	// MaxConsecutiveErrors is the number of consecutive transport failures
	// tolerated before the poller gives up and reports a terminal error.
	// Default: 5.
	MaxConsecutiveErrors int
	// Logger for logging.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("job api client is required")
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = defaultMaxConsecutiveErrors
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "poller.Poller"})

	return nil
}

// Poller tracks server-side jobs by repeated status polling.
//
// A Poller is safe for concurrent use.
type Poller struct {
	client    jobapi.Client
	interval  time.Duration
	maxErrors int
	logger    log.Logger

	mu     sync.Mutex
	scopes map[string]*scope
}

// scope holds the per-project tracking state: the fence that orders watcher
// generations and the currently active watcher, if any.
type scope struct {
	fence   fence.Fence
	current *watcher
}

// watcher is one poll loop's bookkeeping. Owned by the loop that created it;
// mutated only under the Poller lock.
type watcher struct {
	handle     model.JobHandle
	token      fence.Token
	cancelC    chan struct{}
	cancelOnce sync.Once
	cancelled  bool
	terminated bool
}

// New creates a new Poller.
func New(cfg Config) (*Poller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Poller{
		client:    cfg.Client,
		interval:  cfg.Interval,
		maxErrors: cfg.MaxConsecutiveErrors,
		logger:    cfg.Logger,
		scopes:    map[string]*scope{},
	}, nil
}

// Submit creates a server-side job and returns a handle for tracking it.
// On submission failure no handle is created and the error is returned.
func (p *Poller) Submit(ctx context.Context, req model.JobRequest) (*model.JobHandle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	remoteID, err := p.client.SubmitJob(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("could not submit job: %w", err)
	}

	return &model.JobHandle{
		RemoteID:  remoteID,
		ProjectID: req.ProjectID,
		StartedAt: time.Now().UTC(),
	}, nil
}

// Poll tracks the job behind the handle until it reaches a terminal state,
// the handle is cancelled, or the context is done. It blocks.
//
// Starting a Poll for a project cancels any previous poll loop for the same
// project. Across the lifetime of one handle at most one terminal callback
// (OnComplete or OnError) fires, never both and never more than once.
// Cancellation is silent: no callback fires for a cancelled handle, even if
// a status response was already in flight.
//
// Returns nil on terminal outcome and on cancellation, ctx.Err() when the
// context ends the loop.
func (p *Poller) Poll(ctx context.Context, h *model.JobHandle, cb Callbacks) error {
	if h == nil || h.RemoteID == "" || h.ProjectID == "" {
		return fmt.Errorf("job handle with remote and project IDs is required: %w", model.ErrNotValid)
	}

	w := p.register(h)
	p.logger.Debugf("Polling job %s for project %s", h.RemoteID, h.ProjectID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	consecutiveErrs := 0
	for {
		select {
		case <-ctx.Done():
			// Teardown: discard the watcher so nothing can commit later.
			p.Cancel(h)
			return ctx.Err()
		case <-w.cancelC:
			return nil
		case <-ticker.C:
		}

		state, err := p.client.JobStatus(ctx, h.RemoteID)
		if err != nil {
			consecutiveErrs++
			if consecutiveErrs < p.maxErrors {
				// Transient: retry on the next tick.
				p.logger.Debugf("Transient status check failure (%d/%d) for job %s: %s",
					consecutiveErrs, p.maxErrors, h.RemoteID, err)
				continue
			}

			msg := fmt.Sprintf("gave up after %d consecutive status check failures: %s", consecutiveErrs, err)
			p.deliverTerminal(w, cb.OnError, msg)
			return nil
		}
		consecutiveErrs = 0

		switch state.Status {
		case model.JobStatusCompleted:
			p.deliverTerminal(w, func(string) {
				if cb.OnComplete != nil {
					cb.OnComplete(state.Result)
				}
			}, "")
			return nil
		case model.JobStatusFailed:
			p.deliverTerminal(w, cb.OnError, state.Error)
			return nil
		default:
			p.deliverProgress(w, cb.OnProgress, state.Progress, state.CurrentStep)
		}
	}
}

// Cancel raises the handle's cancellation signal. Idempotent. After Cancel
// returns, no callback will fire for the handle.
func (p *Poller) Cancel(h *model.JobHandle) {
	if h == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sc, ok := p.scopes[h.ProjectID]
	if !ok || sc.current == nil || sc.current.handle.RemoteID != h.RemoteID {
		return
	}

	p.cancelLocked(sc, sc.current)
}

// register installs a new watcher as the current one for the handle's
// project, cancelling any previous watcher for the same project.
func (p *Poller) register(h *model.JobHandle) *watcher {
	p.mu.Lock()
	defer p.mu.Unlock()

	sc, ok := p.scopes[h.ProjectID]
	if !ok {
		sc = &scope{}
		p.scopes[h.ProjectID] = sc
	}

	if sc.current != nil {
		p.logger.Debugf("Superseding active poller for project %s", h.ProjectID)
		p.cancelLocked(sc, sc.current)
	}

	w := &watcher{
		handle:  *h,
		token:   sc.fence.Start(),
		cancelC: make(chan struct{}),
	}
	sc.current = w

	return w
}

func (p *Poller) cancelLocked(sc *scope, w *watcher) {
	w.cancelled = true
	w.cancelOnce.Do(func() { close(w.cancelC) })
	if sc.current == w {
		sc.current = nil
	}
}

// deliverTerminal invokes the terminal callback if, and only if, the watcher
// is still live: not cancelled, not already terminated, and still the latest
// generation for its project. The watcher is retired either way.
func (p *Poller) deliverTerminal(w *watcher, cb func(string), msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.liveLocked(w) {
		return
	}

	w.terminated = true
	sc := p.scopes[w.handle.ProjectID]
	if sc != nil && sc.current == w {
		sc.current = nil
	}

	if cb != nil {
		cb(msg)
	}
}

func (p *Poller) deliverProgress(w *watcher, cb func(int, string), progress int, step string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.liveLocked(w) || cb == nil {
		return
	}

	cb(progress, step)
}

func (p *Poller) liveLocked(w *watcher) bool {
	if w.cancelled || w.terminated {
		return false
	}

	sc, ok := p.scopes[w.handle.ProjectID]
	if !ok || sc.current != w {
		return false
	}

	return sc.fence.IsLatest(w.token)
}
