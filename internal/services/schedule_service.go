package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"mutuo/internal/amortization"
	"mutuo/internal/cache"
	"mutuo/internal/core"
	applog "mutuo/internal/log"
)

// GenerateFunc builds a schedule from validated inputs.
type GenerateFunc func(core.LoanParams) (amortization.Schedule, error)

// ScheduleService serves amortization schedules, memoizing recent inputs.
type ScheduleService struct {
	generate GenerateFunc
	cache    *cache.LRUCache[amortization.Schedule]
	group    singleflight.Group
	logger   *applog.Logger
	events   *applog.StructuredLogger
}

// ScheduleServiceOption configures a ScheduleService.
type ScheduleServiceOption func(*ScheduleService)

// WithGenerator replaces amortization.Generate.
func WithGenerator(fn GenerateFunc) ScheduleServiceOption {
	return func(s *ScheduleService) { s.generate = fn }
}

// WithLogger sets the service logger.
func WithLogger(logger *applog.Logger) ScheduleServiceOption {
	return func(s *ScheduleService) { s.logger = logger.WithComponent(applog.ComponentSchedule) }
}

func NewScheduleService(cacheSize int, cacheTTL time.Duration, opts ...ScheduleServiceOption) *ScheduleService {
	s := &ScheduleService{
		generate: amortization.Generate,
		cache:    cache.NewLRUCache[amortization.Schedule](cacheSize, cacheTTL),
		logger:   applog.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = applog.NewStructuredLogger(s.logger)
	return s
}

// Compute returns the schedule for p. Schedules are immutable, so cached
// values are handed out to concurrent callers as is.
func (s *ScheduleService) Compute(ctx context.Context, p core.LoanParams) (amortization.Schedule, error) {
	if err := p.Validate(); err != nil {
		return amortization.Schedule{}, err
	}
	if err := ctx.Err(); err != nil {
		return amortization.Schedule{}, err
	}

	key := p.Key()
	if sched, ok := s.cache.Get(key); ok {
		s.logComputed(ctx, p, sched, true)
		return sched, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if sched, ok := s.cache.Get(key); ok {
			return sched, nil
		}
		sched, err := s.generate(p)
		if err != nil {
			return amortization.Schedule{}, err
		}
		s.cache.Set(key, sched)
		return sched, nil
	})
	if err != nil {
		s.events.LogError(ctx, "Schedule generation failed", err, applog.ComponentSchedule, applog.OpCompute,
			applog.NewFields().WithLoan(p.Loan.String(), p.AnnualRate.String(), p.Years))
		return amortization.Schedule{}, fmt.Errorf("generate schedule: %w", err)
	}

	sched := v.(amortization.Schedule)
	s.logComputed(ctx, p, sched, false)
	return sched, nil
}

// Cache exposes the schedule cache so that a cache.Manager can purge it.
func (s *ScheduleService) Cache() *cache.LRUCache[amortization.Schedule] {
	return s.cache
}

// Stats reports cache effectiveness.
func (s *ScheduleService) Stats() cache.Stats {
	return s.cache.Stats()
}

func (s *ScheduleService) logComputed(ctx context.Context, p core.LoanParams, sched amortization.Schedule, hit bool) {
	var payment string
	if sched.Len() > 0 {
		payment = sched.At(0).Payment.String()
	}
	s.events.LogScheduleComputed(ctx, p.Loan.String(), p.AnnualRate.String(), p.Years, sched.Len(), payment, hit)
}
