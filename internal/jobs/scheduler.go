package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type TenderCloser interface {
	CloseExpired(ctx context.Context, today time.Time) (int64, error)
}

// Scheduler runs the daily housekeeping jobs: tenders whose effective
// closing date has passed are moved to closed without an admin touching
// them.
type Scheduler struct {
	cron    *cron.Cron
	tenders TenderCloser
	cache   *redis.Client
	log     zerolog.Logger
}

func NewScheduler(tenders TenderCloser, cache *redis.Client, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		tenders: tenders,
		cache:   cache,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 5 0 * * *", s.closeExpiredTenders); err != nil {
		return err
	}

	s.cron.Start()

	// Catch up on anything that expired while the process was down.
	go s.closeExpiredTenders()
	return nil
}

// Stop halts the cron loop and waits briefly for a running job to
// finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) closeExpiredTenders() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	closed, err := s.tenders.CloseExpired(ctx, today)
	if err != nil {
		s.log.Error().Err(err).Msg("close expired tenders failed")
		return
	}
	if closed == 0 {
		return
	}

	s.log.Info().Int64("closed", closed).Msg("expired tenders closed")

	if s.cache != nil {
		if err := s.cache.Del(ctx, "public:tenders").Err(); err != nil {
			s.log.Warn().Err(err).Msg("cache invalidation failed")
		}
	}
}
