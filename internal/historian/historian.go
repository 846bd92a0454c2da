// internal/historian/historian.go
//
// The historian is an asynchronous consumer that pops relayed room
// events from a Redis queue and persists them to PostgreSQL. It is
// observational: the relay keeps working if the historian is down,
// history is simply lost for that window.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/singular-game/singular/internal/cache"
	"github.com/singular-game/singular/internal/database"
)

// Config tunes the batching consumer. Zero values fall back to the
// defaults below.
type Config struct {
	RedisAddr  string
	QueueName  string
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration
}

const (
	defaultBatchSize  = 20
	defaultFlushDelay = 500 * time.Millisecond
	defaultInactivity = 10 * time.Minute
)

// Service consumes the room event queue in batches.
type Service struct {
	redisClient *redis.Client
	queueName   string
	batchSize   int
	flushDelay  time.Duration
	inactivity  time.Duration

	// lastActivity tracks room code -> last event time for the
	// abandonment sweep.
	lastActivity sync.Map

	batchMu sync.Mutex
	batch   []cache.RoomEventRecord

	// flushFn persists one batch; replaceable in tests.
	flushFn func([]cache.RoomEventRecord)

	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewService constructs a Service from the given config.
func NewService(cfg Config) *Service {
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.QueueName == "" {
		cfg.QueueName = cache.DefaultQueueName
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = defaultFlushDelay
	}
	if cfg.Inactivity <= 0 {
		cfg.Inactivity = defaultInactivity
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		redisClient: redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
		queueName:   cfg.QueueName,
		batchSize:   cfg.BatchSize,
		flushDelay:  cfg.FlushDelay,
		inactivity:  cfg.Inactivity,
		batch:       make([]cache.RoomEventRecord, 0, cfg.BatchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
	s.flushFn = s.flushToDB
	return s
}

// Run connects the database and starts the consumer loops, blocking
// until Stop is called.
func (s *Service) Run() {
	database.ConnectDB()

	go s.readRedisLoop()
	go s.inactivityLoop()

	logrus.Info("historian started")
	<-s.ctx.Done()
	s.Flush()
	logrus.Info("historian shutting down")
}

// Stop cancels the consumer loops.
func (s *Service) Stop() {
	s.cancelFn()
}

// readRedisLoop blocks on the queue and accumulates records, flushing
// on size or on the flush timer.
func (s *Service) readRedisLoop() {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Flush()
		default:
			// BLPop with a short timeout so cancellation is noticed.
			res, err := s.redisClient.BLPop(s.ctx, 3*time.Second, s.queueName).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && s.ctx.Err() == nil {
					logrus.Errorf("historian: BLPop: %v", err)
				}
				continue
			}
			if len(res) < 2 {
				continue
			}

			var record cache.RoomEventRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				logrus.Warnf("historian: invalid event record: %v", err)
				continue
			}

			s.lastActivity.Store(record.RoomCode, time.Now())
			s.Append(record)
		}
	}
}

// Append adds a record to the pending batch, flushing when it reaches
// the size threshold.
func (s *Service) Append(record cache.RoomEventRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, record)
	full := len(s.batch) >= s.batchSize
	s.batchMu.Unlock()
	if full {
		s.Flush()
	}
}

// Flush persists the pending batch, if any.
func (s *Service) Flush() {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.RoomEventRecord, len(s.batch))
	copy(batchCopy, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	s.flushFn(batchCopy)
}

// flushToDB writes one batch inside a single transaction.
func (s *Service) flushToDB(batch []cache.RoomEventRecord) {
	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			if err := database.UpsertRoom(ctx, tx, rec.RoomCode); err != nil {
				return fmt.Errorf("upsert room %s: %w", rec.RoomCode, err)
			}
			if err := database.InsertRoomEvent(ctx, tx, rec.RoomCode, rec.EventIndex, rec.PlayerID, rec.EventType, rec.Payload); err != nil {
				return fmt.Errorf("insert event for room %s: %w", rec.RoomCode, err)
			}
		}
		return nil
	})
	if err != nil {
		logrus.Errorf("historian: flush failed: %v", err)
		return
	}
	logrus.Debugf("historian: flushed %d events", len(batch))
}

// inactivityLoop periodically marks long-idle rooms as abandoned.
func (s *Service) inactivityLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.lastActivity.Range(func(key, val interface{}) bool {
				code, ok1 := key.(string)
				last, ok2 := val.(time.Time)
				if ok1 && ok2 && now.Sub(last) > s.inactivity {
					if err := database.MarkRoomAbandoned(context.Background(), code); err != nil {
						logrus.Warnf("historian: failed to mark room %s abandoned: %v", code, err)
					} else {
						logrus.Infof("historian: marked room %s abandoned", code)
					}
					s.lastActivity.Delete(code)
				}
				return true
			})
		}
	}
}
