// Package historian drains the draft event queue into PostgreSQL and marks
// drafts abandoned once their rooms go quiet.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mildmongrel/thicket/internal/cache"
	"github.com/mildmongrel/thicket/internal/room"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Queue is the blocking pop the service reads with.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Store persists what the service reads.
type Store interface {
	InsertDraftEvents(ctx context.Context, records []cache.DraftEventRecord) error
	MarkDraftAbandoned(ctx context.Context, roomID uuid.UUID) error
}

type Options struct {
	QueueName  string
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a draft may go without events before it is
	// marked abandoned.
	Inactivity time.Duration
}

// Service batches queued draft events and flushes them in one transaction
// per batch.
type Service struct {
	queue  Queue
	store  Store
	opts   Options
	logger *logrus.Entry
	now    func() time.Time

	lastActivity sync.Map // uuid.UUID -> time.Time

	batchMu sync.Mutex
	batch   []cache.DraftEventRecord
}

func New(queue Queue, store Store, opts Options, logger *logrus.Entry) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	return &Service{
		queue:  queue,
		store:  store,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		batch:  make([]cache.DraftEventRecord, 0, opts.BatchSize),
	}
}

// Run reads the queue until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.logger.Infof("historian started on queue %q", s.opts.QueueName)
	<-ctx.Done()
	wg.Wait()
	s.Flush(context.Background())
	s.logger.Info("historian shutting down")
}

func (s *Service) readLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		default:
			// The timeout lets the loop notice cancellation and flush ticks.
			res, err := s.queue.BLPop(ctx, s.opts.FlushDelay, s.opts.QueueName).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					s.logger.Errorf("BLPop: %v", err)
					time.Sleep(s.opts.FlushDelay)
				}
				continue
			}
			if len(res) < 2 {
				continue
			}
			// res[0] is the queue name and res[1] the payload.
			s.handlePayload(ctx, res[1])
		}
	}
}

func (s *Service) handlePayload(ctx context.Context, payload string) {
	var rec cache.DraftEventRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		s.logger.Warnf("invalid draft event record: %v", err)
		return
	}

	switch rec.EventType {
	case room.EventDraftCompleted:
		s.lastActivity.Delete(rec.RoomID)
		s.append(ctx, rec)
	case room.EventRoomExpired:
		// The draft row must exist before it can be marked.
		s.lastActivity.Delete(rec.RoomID)
		s.append(ctx, rec)
		s.Flush(ctx)
		s.markAbandoned(ctx, rec.RoomID)
	default:
		s.lastActivity.Store(rec.RoomID, s.now())
		s.append(ctx, rec)
	}
}

// append adds a record to the batch and flushes once the batch is full.
func (s *Service) append(ctx context.Context, rec cache.DraftEventRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch. A failed batch is logged and dropped.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if len(s.batch) == 0 {
		return
	}
	batch := make([]cache.DraftEventRecord, len(s.batch))
	copy(batch, s.batch)
	s.batch = s.batch[:0]

	if err := s.store.InsertDraftEvents(ctx, batch); err != nil {
		s.logger.Errorf("failed to flush %d draft events: %v", len(batch), err)
		return
	}
	s.logger.Debugf("flushed %d draft events", len(batch))
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkInactivity(ctx)
		}
	}
}

// checkInactivity marks every draft idle for longer than Options.Inactivity
// as abandoned.
func (s *Service) checkInactivity(ctx context.Context) {
	if s.opts.Inactivity <= 0 {
		return
	}
	now := s.now()
	s.lastActivity.Range(func(key, val interface{}) bool {
		roomID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if ok1 && ok2 && now.Sub(last) > s.opts.Inactivity {
			s.Flush(ctx)
			s.markAbandoned(ctx, roomID)
			s.lastActivity.Delete(roomID)
		}
		return true
	})
}

func (s *Service) markAbandoned(ctx context.Context, roomID uuid.UUID) {
	if err := s.store.MarkDraftAbandoned(ctx, roomID); err != nil {
		s.logger.Errorf("%v", err)
		return
	}
	s.logger.Infof("marked draft %v abandoned", roomID)
}
