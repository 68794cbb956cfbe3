package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/frahmantamala/aims-commerce/internal"
)

const (
	TypeOrderConfirmation  = "order_confirmation"
	TypePaymentReceipt     = "payment_receipt"
	TypePaymentFailure     = "payment_failure"
	TypeCancellationNotice = "cancellation_notice"
)

// Message is one customer-facing notification. Delivery is fire and forget:
// the dispatcher owns retries and the business flow never waits for it.
type Message struct {
	Type       string `json:"type"`
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

type Worker struct {
	ID         int
	WorkerPool chan chan Message
	JobChannel chan Message
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Message, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Message),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Message)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case msg := <-w.JobChannel:
				w.Logger.Debug("worker processing notification", "worker_id", w.ID, "type", msg.Type, "order_id", msg.OrderID)
				processFunc(msg)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Dispatcher fans notifications out to the configured delivery endpoint
// through a bounded worker pool.
type Dispatcher struct {
	deliveryURL string
	sendTimeout time.Duration
	maxRetries  int
	httpClient  *http.Client
	logger      *slog.Logger

	jobQueue   chan Message
	workerPool chan chan Message
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewDispatcher(cfg internal.NotificationConfig, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	queueSize := cfg.JobQueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	d := &Dispatcher{
		deliveryURL: cfg.WebhookURL,
		sendTimeout: sendTimeout,
		maxRetries:  maxRetries,
		httpClient:  &http.Client{Timeout: sendTimeout},
		logger:      logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Message, queueSize),
		workerPool: make(chan chan Message, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	d.startWorkerPool()

	return d
}

func (d *Dispatcher) startWorkerPool() {
	d.once.Do(func() {

		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.deliver)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.jobQueue:

			select {
			case jobChannel := <-d.workerPool:

				select {
				case jobChannel <- msg:

				case <-d.ctx.Done():
					d.logger.Info("notification dispatcher shutting down")
					return
				}
			case <-d.ctx.Done():
				d.logger.Info("notification dispatcher shutting down")
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

// Enqueue hands a message to the pool without blocking. A full queue drops
// the message: notifications are best effort and must never stall checkout.
func (d *Dispatcher) Enqueue(msg Message) bool {
	select {
	case d.jobQueue <- msg:
		return true
	default:
		d.logger.Warn("notification queue full, dropping message",
			"type", msg.Type,
			"order_id", msg.OrderID,
			"queue_capacity", cap(d.jobQueue))
		return false
	}
}

// Shutdown stops accepting work and waits for in-flight deliveries.
func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down notification dispatcher")
	d.cancel()
	d.wg.Wait()
	d.logger.Info("notification dispatcher shutdown complete")
}

func (d *Dispatcher) deliver(msg Message) {
	if d.deliveryURL == "" {
		d.logger.Debug("no delivery URL configured, skipping notification", "type", msg.Type, "order_id", msg.OrderID)
		return
	}

	backoff := retry.WithMaxRetries(uint64(d.maxRetries), retry.NewExponential(200*time.Millisecond))

	err := retry.Do(d.ctx, backoff, func(ctx context.Context) error {
		if err := d.post(ctx, msg); err != nil {
			d.logger.Warn("notification delivery attempt failed",
				"type", msg.Type,
				"order_id", msg.OrderID,
				"error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		d.logger.Error("notification delivery gave up",
			"type", msg.Type,
			"order_id", msg.OrderID,
			"customer_id", msg.CustomerID,
			"error", err)
		return
	}

	d.logger.Info("notification delivered",
		"type", msg.Type,
		"order_id", msg.OrderID,
		"customer_id", msg.CustomerID)
}

func (d *Dispatcher) post(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.deliveryURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("delivery endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
