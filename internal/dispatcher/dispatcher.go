// Package dispatcher drains the queue of approved, undistributed leads and
// feeds them through the distribution engine with bounded concurrency.
package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/leadflow/internal/clock"
	distributiondomain "github.com/smallbiznis/leadflow/internal/distribution/domain"
	leaddomain "github.com/smallbiznis/leadflow/internal/lead/domain"
)

var ErrInvalidConfig = errors.New("dispatcher: invalid config")

// Config tunes one dispatcher instance.
type Config struct {
	// RunInterval is the pause between drain passes.
	RunInterval time.Duration
	// BatchSize bounds how many leads one pass claims.
	BatchSize int
	// Concurrency bounds how many leads are distributed at once. Runs for
	// the same niche still serialize on the rotation row lock.
	Concurrency int
	// RunTimeout bounds one full pass.
	RunTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.RunInterval <= 0 {
		c.RunInterval = 15 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 2 * time.Minute
	}
	return c
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	LeadRepo leaddomain.Repository
	Svc      distributiondomain.Service
	Config   Config `optional:"true"`
}

type Dispatcher struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      Config
	clock    clock.Clock
	leadRepo leaddomain.Repository
	svc      distributiondomain.Service
}

func New(p Params) (*Dispatcher, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.LeadRepo == nil || p.Svc == nil {
		return nil, ErrInvalidConfig
	}
	return &Dispatcher{
		db:       p.DB,
		log:      p.Log.Named("dispatcher"),
		cfg:      p.Config.withDefaults(),
		clock:    p.Clock,
		leadRepo: p.LeadRepo,
		svc:      p.Svc,
	}, nil
}

// RunOnce drains one batch. Each lead runs independently; a failing lead
// contributes to the joined error but never blocks the rest of the batch.
func (d *Dispatcher) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, d.cfg.RunTimeout)
	defer cancel()

	leads, err := d.leadRepo.ListAwaitingDistribution(ctx, d.db, d.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(leads) == 0 {
		return nil
	}

	trigger := distributiondomain.TriggeredBy{ActorID: "dispatcher", ActorRole: "system"}

	sem := make(chan struct{}, d.cfg.Concurrency)
	errs := make([]error, len(leads))
	var wg sync.WaitGroup

	for i, lead := range leads {
		if ctx.Err() != nil {
			errs[i] = ctx.Err()
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, lead leaddomain.Lead) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := d.svc.Distribute(ctx, lead.ID, trigger)
			if err != nil {
				errs[i] = err
				d.log.Warn("lead distribution failed",
					zap.Int64("lead_id", int64(lead.ID)),
					zap.Error(err),
				)
				return
			}
			d.log.Info("lead dispatched",
				zap.Int64("lead_id", int64(lead.ID)),
				zap.String("status", string(result.Status)),
				zap.Int("assignments", len(result.Assignments)),
			)
		}(i, lead)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// RunForever drains batches on a fixed interval until ctx is canceled.
func (d *Dispatcher) RunForever(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := d.RunOnce(ctx); err != nil {
			d.log.Warn("dispatcher run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
