package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"photoshare/internal/logger"
	"photoshare/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second

	readErrorBackoff = time.Second
)

// ManagerConfig tunes the fanout consumers. Zero values fall back to defaults.
type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = DefaultBlockTimeout
	}
	return c
}

// Manager runs the notification fanout consumers on the interaction stream.
// Every delivered entry is acknowledged once handled, whether or not the
// handler succeeded; fanout is best-effort.
type Manager struct {
	consumer queue.Consumer
	handler  queue.EventHandler
	log      *logger.Logger
	stream   string
	group    string
	cfg      ManagerConfig
}

func NewManager(consumer queue.Consumer, handler queue.EventHandler, cfg ManagerConfig, log *logger.Logger) *Manager {
	return &Manager{
		consumer: consumer,
		handler:  handler,
		log:      log.With("component", "fanout_manager"),
		stream:   queue.StreamInteractions,
		group:    queue.ConsumerGroupNotifications,
		cfg:      cfg.withDefaults(),
	}
}

// Run creates the consumer group, then consumes until ctx is cancelled.
// Cancellation is a clean stop and returns nil.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx, m.stream, m.group); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 1; i <= m.cfg.WorkerCount; i++ {
		w := fanoutWorker{Manager: m, id: i, name: fmt.Sprintf("fanout-%d", i)}
		g.Go(func() error {
			w.loop(gctx)
			return nil
		})
	}

	m.log.Info("Fanout consumers started", "count", m.cfg.WorkerCount, "stream", m.stream, "group", m.group)
	err := g.Wait()
	m.log.Info("Fanout consumers stopped")
	return err
}

type fanoutWorker struct {
	*Manager
	id   int
	name string
}

func (w fanoutWorker) loop(ctx context.Context) {
	// Entries delivered to this consumer name before a restart come first.
	w.drainPending(ctx)

	for ctx.Err() == nil {
		msgs, err := w.consumer.Read(ctx, w.stream, w.group, w.name, w.cfg.BatchSize, w.cfg.BlockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warn("Stream read failed", "worker", w.id, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(readErrorBackoff):
			}
			continue
		}
		w.dispatch(ctx, msgs)
	}
}

func (w fanoutWorker) drainPending(ctx context.Context) {
	for {
		msgs, err := w.consumer.ReadPending(ctx, w.stream, w.group, w.name, w.cfg.BatchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Warn("Pending read failed", "worker", w.id, "error", err)
			}
			return
		}
		if len(msgs) == 0 {
			return
		}
		w.log.Info("Recovering pending entries", "worker", w.id, "count", len(msgs))
		w.dispatch(ctx, msgs)
	}
}

// dispatch hands each entry to the handler and acks it. Entries the consumer
// could not decode arrive with an empty event type and are only acked.
func (w fanoutWorker) dispatch(ctx context.Context, msgs []queue.Message) {
	ackCtx := context.WithoutCancel(ctx)
	for _, msg := range msgs {
		if msg.Event.Type != "" {
			if err := w.handler.HandleEvent(ctx, msg.Event); err != nil {
				w.log.Warn("Fanout failed", "worker", w.id, "msg_id", msg.ID, "type", msg.Event.Type, "error", err)
			}
		}
		if err := w.consumer.Ack(ackCtx, w.stream, w.group, msg.ID); err != nil {
			w.log.Warn("Ack failed", "worker", w.id, "msg_id", msg.ID, "error", err)
		}
	}
}
