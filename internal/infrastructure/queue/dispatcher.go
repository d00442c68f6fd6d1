package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gems-crm/backend/internal/core/domain"
	"github.com/gems-crm/backend/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// DropObserver is notified when an event is discarded because its shard is full.
type DropObserver interface {
	AuditEventDropped(kind domain.AccountEventKind)
}

// AuditDispatcher persists account events off the request path. Events are
// sharded by account ID so each account's trail is written in order.
type AuditDispatcher struct {
	workers []chan domain.AccountEvent
	repo    ports.AuditRepository
	drops   DropObserver
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewAuditDispatcher creates a dispatcher with numWorkers shards.
// If numWorkers <= 0, defaultWorkers is used. drops may be nil.
func NewAuditDispatcher(numWorkers int, repo ports.AuditRepository, drops DropObserver, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.AccountEvent, numWorkers),
		repo:    repo,
		drops:   drops,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AccountEvent, channelBuffer)
	}
	return d
}

// Start launches the workers. They stop when ctx is cancelled.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *AuditDispatcher) Wait() {
	d.wg.Wait()
}

// Record enqueues e without blocking. When the shard is full the event is
// dropped and logged.
func (d *AuditDispatcher) Record(e domain.AccountEvent) {
	select {
	case d.workers[d.shardIndex(e.AccountID)] <- e:
	default:
		d.log.Warn().
			Str("account_id", e.AccountID).
			Str("kind", string(e.Kind)).
			Msg("audit queue full, event dropped")
		if d.drops != nil {
			d.drops.AuditEventDropped(e.Kind)
		}
	}
}

// Pending returns the number of queued events across all shards.
func (d *AuditDispatcher) Pending() int {
	n := 0
	for _, ch := range d.workers {
		n += len(ch)
	}
	return n
}

func (d *AuditDispatcher) shardIndex(accountID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AccountEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ch:
			d.write(id, e)
		}
	}
}

// write uses its own deadline so an in-flight event survives shutdown.
func (d *AuditDispatcher) write(id int, e domain.AccountEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := d.repo.InsertEvent(ctx, &e); err != nil {
		d.log.Error().Err(err).
			Str("account_id", e.AccountID).
			Str("kind", string(e.Kind)).
			Int("worker_id", id).
			Msg("audit event write failed")
	}
}
