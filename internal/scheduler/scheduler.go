package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/reelkeep/reelkeep/internal/jobs"
	"github.com/reelkeep/reelkeep/internal/repository"
)

// Scheduler runs periodic maintenance: expired-session cleanup and stale
// metadata refresh. Heavy work is handed to the job queue; cron entries only
// enqueue.
type Scheduler struct {
	cron     *cron.Cron
	userRepo *repository.UserRepository
	queue    *jobs.Queue
}

func New(userRepo *repository.UserRepository, queue *jobs.Queue) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		userRepo: userRepo,
		queue:    queue,
	}
}

func (s *Scheduler) Start() error {
	// Nightly at 03:10: purge expired sessions.
	if _, err := s.cron.AddFunc("10 3 * * *", s.purgeSessions); err != nil {
		return err
	}
	// Weekly on Monday 04:00: refresh stale movie metadata.
	if _, err := s.cron.AddFunc("0 4 * * 1", s.enqueueRefresh); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("[scheduler] cron started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[scheduler] cron stopped")
}

func (s *Scheduler) purgeSessions() {
	n, err := s.userRepo.DeleteExpiredSessions()
	if err != nil {
		log.Printf("[scheduler] session purge: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[scheduler] purged %d expired sessions", n)
	}
}

func (s *Scheduler) enqueueRefresh() {
	_, err := s.queue.EnqueueUnique(jobs.TaskMetadataRefresh,
		jobs.MetadataRefreshPayload{OlderThanDays: 7, Limit: 500},
		"metadata:refresh:weekly")
	if err != nil {
		log.Printf("[scheduler] enqueue metadata refresh: %v", err)
	}
}
