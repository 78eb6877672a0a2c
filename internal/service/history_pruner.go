package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/basel-ax/dallegen/internal/repository"
)

// HistoryPruner periodically deletes generation history older than the retention window
type HistoryPruner struct {
	repo      repository.GenerationRepository
	retention time.Duration
	schedule  string
	now       func() time.Time
	mu        sync.Mutex

	cron     *cron.Cron
	stopOnce sync.Once
}

// NewHistoryPruner creates a pruner that runs on a seconds-enabled cron schedule
func NewHistoryPruner(repo repository.GenerationRepository, retention time.Duration, schedule string) *HistoryPruner {
	return &HistoryPruner{
		repo:      repo,
		retention: retention,
		schedule:  schedule,
		now:       time.Now,
	}
}

// Start schedules pruning. The scheduler stops when ctx is cancelled or Stop is called.
func (p *HistoryPruner) Start(ctx context.Context) error {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(p.schedule, func() {
		if _, err := p.PruneOnce(ctx); err != nil {
			log.Printf("[CRON] Error pruning generation history: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", p.schedule, err)
	}

	p.cron = c
	c.Start()
	log.Printf("History pruner scheduled (%s, retention %v)", p.schedule, p.retention)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// Stop halts the scheduler and waits for a running prune to finish
func (p *HistoryPruner) Stop() {
	if p.cron == nil {
		return
	}
	p.stopOnce.Do(func() {
		<-p.cron.Stop().Done()
		log.Println("History pruner stopped")
	})
}

// PruneOnce deletes rows older than the retention window; runs never overlap
func (p *HistoryPruner) PruneOnce(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := p.now().Add(-p.retention)
	n, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[CRON] Pruned %d generation(s) created before %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}
