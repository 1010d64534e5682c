// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fluffyriot/skillboard/internal/metrics"
	"github.com/fluffyriot/skillboard/internal/report"
)

const (
	defaultQueueSize = 32
	maxRetries       = 3
	uploadTimeout    = 20 * time.Second
)

type Uploader interface {
	Store(ctx context.Context, userID string, doc report.Document) (string, error)
}

type job struct {
	userID string
	doc    report.Document
}

// Worker uploads generated reports in the background so a slow or broken
// archive never delays a download.
type Worker struct {
	uploader Uploader
	logger   *slog.Logger
	jobs     chan job
	backoff  func(attempt int) time.Duration

	mu     sync.Mutex
	active bool
	wg     sync.WaitGroup
}

func NewWorker(uploader Uploader, queueSize int, logger *slog.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Worker{
		uploader: uploader,
		logger:   logger.With("component", "worker.Archive"),
		jobs:     make(chan job, queueSize),
		backoff:  backoffWithJitter,
	}
}

func backoffWithJitter(attempt int) time.Duration {
	const (
		baseDelay = 1 * time.Second
		maxDelay  = 30 * time.Second
	)

	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}

	var b [8]byte
	_, _ = rand.Read(b[:])
	jitter := time.Duration(binary.LittleEndian.Uint64(b[:]) % uint64(delay))

	return jitter
}

// Start runs the upload loop until Stop is called. Cancelling ctx only cuts
// retry waits short.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.active {
		w.mu.Unlock()
		w.logger.Warn("Archive worker already active")
		return
	}
	w.active = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for j := range w.jobs {
			w.upload(ctx, j)
		}
	}()
	w.logger.Info("Archive worker started")
}

// Stop drains queued uploads and waits for the loop to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return
	}
	w.active = false
	close(w.jobs)
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("Archive worker stopped")
}

func (w *Worker) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Submit queues doc for upload. It never blocks: when the queue is full or
// the worker is stopped the report is skipped.
func (w *Worker) Submit(userID string, doc report.Document) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return false
	}

	select {
	case w.jobs <- job{userID: userID, doc: doc}:
		return true
	default:
		metrics.ArchiveUploads.WithLabelValues("dropped").Inc()
		w.logger.Warn("Archive queue full, skipping report", "user_id", userID, "report_id", doc.ID)
		return false
	}
}

func (w *Worker) upload(ctx context.Context, j job) {
	var err error

retry:
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = w.uploadOnce(ctx, j)
		if err == nil || attempt == maxRetries {
			break
		}

		delay := w.backoff(attempt)
		w.logger.Warn("Archive upload failed, retrying", "report_id", j.doc.ID, "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			break retry
		}
	}

	metrics.ArchiveUploads.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		w.logger.Error("Archive upload FAILED", "user_id", j.userID, "report_id", j.doc.ID, "error", err)
	}
}

func (w *Worker) uploadOnce(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in archive upload: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uploadTimeout)
	defer cancel()

	key, err := w.uploader.Store(ctx, j.userID, j.doc)
	if err != nil {
		return err
	}
	w.logger.Info("Report archived", "user_id", j.userID, "key", key, "bytes", len(j.doc.Data))
	return nil
}
