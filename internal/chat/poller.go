package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/classmarket/tutorchat/internal/logging"
)

// Poller errors.
var (
	ErrPollerAlreadyRunning = errors.New("poller already running")
	ErrPollerNotRunning     = errors.New("poller not running")
)

// SummarySource produces conversation summaries; Aggregator implements it.
type SummarySource interface {
	Summaries(ctx context.Context, viewerID string) ([]Summary, error)
}

// PollerConfig contains configuration for the refresh poller.
type PollerConfig struct {
	// Interval is how often to re-run aggregation.
	// Default: 30s
	Interval time.Duration
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{Interval: 30 * time.Second}
}

// Poller keeps the chat list current without a push channel. Cycles fire
// on a fixed interval and do not wait for each other; a generation counter
// discards responses that return after a newer cycle has already been
// delivered, so the latest write wins.
type Poller struct {
	config   PollerConfig
	source   SummarySource
	viewerID string
	onUpdate func([]Summary)
	logger   zerolog.Logger

	mu         sync.Mutex
	running    bool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	generation uint64
	delivered  uint64
}

// NewPoller creates a refresh Poller. onUpdate receives each fresh summary
// set and must be safe for concurrent invocation, since cycles may overlap.
func NewPoller(config PollerConfig, source SummarySource, viewerID string, onUpdate func([]Summary)) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollerConfig().Interval
	}
	return &Poller{
		config:   config,
		source:   source,
		viewerID: viewerID,
		onUpdate: onUpdate,
		logger:   logging.Component("chat-poller"),
	}
}

// Start begins the polling loop, with an immediate first cycle.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPollerAlreadyRunning
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	p.logger.Info().
		Dur("interval", p.config.Interval).
		Str("viewer_id", p.viewerID).
		Msg("refresh poller starting")

	p.spawnCycleLocked()
	p.wg.Add(1)
	go p.runLoop()

	return nil
}

// Stop halts the polling loop and waits for in-flight cycles. Responses
// arriving after Stop are discarded.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrPollerNotRunning
	}

	p.logger.Info().Msg("refresh poller stopping")
	p.cancel()
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("refresh poller stopped")
	return nil
}

// IsRunning returns true if the poller is running.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// RefreshNow triggers an immediate out-of-band cycle.
func (p *Poller) RefreshNow() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrPollerNotRunning
	}
	p.spawnCycleLocked()
	return nil
}

func (p *Poller) runLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			p.spawnCycleLocked()
			p.mu.Unlock()
		}
	}
}

func (p *Poller) spawnCycleLocked() {
	p.generation++
	generation := p.generation

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.cycle(generation)
	}()
}

func (p *Poller) cycle(generation uint64) {
	ctx := p.ctx

	summaries, err := p.source.Summaries(ctx, p.viewerID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.logger.Warn().Err(err).Uint64("generation", generation).Msg("refresh cycle failed")
		return
	}

	p.mu.Lock()
	if !p.running || generation <= p.delivered {
		stale := generation <= p.delivered
		p.mu.Unlock()
		if stale {
			p.logger.Debug().Uint64("generation", generation).Msg("stale refresh discarded")
		}
		return
	}
	p.delivered = generation
	callback := p.onUpdate
	p.mu.Unlock()

	if callback != nil {
		callback(summaries)
	}
	p.logger.Debug().
		Uint64("generation", generation).
		Int("conversations", len(summaries)).
		Msg("chat list refreshed")
}
