package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

const (
	defaultDigestCron    = "0 7 * * *"
	defaultMaxConcurrent = 10
	digestBatchSize      = 100
)

// DueCounter counts a student's overdue questions in a bank, "" meaning every bank.
type DueCounter interface {
	CountDue(ctx context.Context, studentID, bankID string, now time.Time) (int, error)
}

// ReminderOptions configures the due digest job.
type ReminderOptions struct {
	Cron          string // standard 5-field cron spec, evaluated in UTC
	MaxConcurrent int    // students processed in parallel
}

// ReminderService sends due-question digests with batch processing.
type ReminderService struct {
	students StudentRepository
	due      DueCounter
	notifier DueNotifier
	opts     ReminderOptions
	logger   *zap.Logger

	now func() time.Time
}

// NewReminderService creates a new reminder service.
func NewReminderService(
	students StudentRepository,
	due DueCounter,
	opts ReminderOptions,
	logger *zap.Logger,
) *ReminderService {
	if opts.Cron == "" {
		opts.Cron = defaultDigestCron
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}

	return &ReminderService{
		students: students,
		due:      due,
		opts:     opts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier sets the notifier (called after the bot handler is created).
func (s *ReminderService) SetNotifier(notifier DueNotifier) {
	s.notifier = notifier
}

// Start runs the digest job on its cron schedule until ctx is done.
func (s *ReminderService) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.opts.Cron, func() {
		s.logger.Info("cron triggered: sending due digests")
		if _, err := s.SendDueDigests(ctx); err != nil {
			s.logger.Error("failed to send due digests", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", s.opts.Cron, err)
	}

	c.Start()
	s.logger.Info("reminder service started", zap.String("cron", s.opts.Cron))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("reminder service stopped")
	return nil
}

// SendDueDigests notifies every student with reminders on who has overdue questions.
// It returns the number of digests sent.
func (s *ReminderService) SendDueDigests(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, fmt.Errorf("notifier not initialized")
	}

	offset := 0
	totalSent := 0
	now := s.now()

	for {
		students, err := s.students.ListWithReminders(ctx, digestBatchSize, offset)
		if err != nil {
			return totalSent, persistenceError("list students with reminders", err)
		}

		if len(students) == 0 {
			break
		}

		totalSent += s.processBatch(ctx, students, now)

		if len(students) < digestBatchSize {
			break
		}

		offset += digestBatchSize
	}

	s.logger.Info("due digests processed", zap.Int("total_sent", totalSent))

	return totalSent, nil
}

// processBatch processes a batch of students concurrently.
func (s *ReminderService) processBatch(ctx context.Context, students []*entities.Student, now time.Time) int {
	sem := make(chan struct{}, s.opts.MaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	sent := 0

	for _, st := range students {
		wg.Add(1)
		sem <- struct{}{} // Acquire

		go func() {
			defer wg.Done()
			defer func() { <-sem }() // Release

			ok, err := s.processStudent(ctx, st, now)
			if err != nil {
				s.logger.Error("failed to send due digest",
					zap.String("student_id", st.ID),
					zap.Error(err))
				return
			}
			if ok {
				mu.Lock()
				sent++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return sent
}

func (s *ReminderService) processStudent(ctx context.Context, st *entities.Student, now time.Time) (bool, error) {
	count, err := s.due.CountDue(ctx, st.ID, st.BankID, now)
	if err != nil {
		return false, fmt.Errorf("count due: %w", err)
	}
	if count == 0 {
		return false, nil
	}

	digest := entities.DueDigest{
		StudentID: st.ID,
		ChatID:    st.ChatID,
		BankID:    st.BankID,
		DueCount:  count,
	}
	if err := s.notifier.SendDueDigest(ctx, digest); err != nil {
		return false, fmt.Errorf("send digest: %w", err)
	}

	s.logger.Debug("due digest sent",
		zap.String("student_id", st.ID),
		zap.Int("due_count", count),
	)
	return true, nil
}
