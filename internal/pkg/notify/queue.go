package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/PlanForgeHQ/PlanForge/internal/pkg/cache"
)

const (
	queueKey     = "notify_queue"
	popTimeout   = 2 * time.Second
	sendDeadline = 30 * time.Second
)

type job struct {
	ID      string  `json:"id"`
	Message Message `json:"message"`
}

// QueueDispatcher pushes notifications onto a Redis list and delivers
// them from a small worker pool, so a slow SMTP server never sits on the
// fulfillment path. Send only fails when the enqueue itself fails.
type QueueDispatcher struct {
	client  *redis.Client
	inner   Dispatcher
	workers int

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueueDispatcher creates a queue-backed dispatcher delivering through inner.
func NewQueueDispatcher(inner Dispatcher, workers int) *QueueDispatcher {
	if workers <= 0 {
		workers = 2
	}
	return &QueueDispatcher{
		client:  cache.GetClient(),
		inner:   inner,
		workers: workers,
		stopCh:  make(chan struct{}),
	}
}

func (q *QueueDispatcher) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(job{ID: uuid.New().String(), Message: msg})
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, queueKey, payload).Err()
}

// Start launches the delivery workers.
func (q *QueueDispatcher) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	log.Infof("[Notify] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop stops the delivery workers and waits for in-flight sends.
func (q *QueueDispatcher) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}
	log.Info("[Notify] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[Notify] All workers stopped")
}

func (q *QueueDispatcher) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		res, err := q.client.BRPop(ctx, popTimeout, queueKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[Notify] Worker %d pop error: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(res) < 2 {
			continue
		}

		var j job
		if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
			log.Errorf("[Notify] Worker %d dropping malformed job: %v", id, err)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendDeadline)
		if err := q.inner.Send(sendCtx, j.Message); err != nil {
			// Best-effort channel: log and move on, no redelivery.
			log.Errorf("[Notify] Worker %d send failed (job %s, kind %s): %v", id, j.ID, j.Message.Kind, err)
		}
		cancel()
	}
}
