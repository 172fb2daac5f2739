// Package analytics records routing decisions and serves fallback diagnostics.
package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/models"
)

const (
	// DefaultBufferSize is the number of payloads held before Log starts dropping.
	DefaultBufferSize = 1024
	writeTimeout      = 5 * time.Second
)

// Writer persists one analytics row.
type Writer interface {
	Write(ctx context.Context, payload models.RouterAnalytics) error
}

// Sink accepts routing analytics without blocking and writes them from a background goroutine.
// Write failures are logged and dropped.
type Sink struct {
	writer Writer
	logger *zap.Logger
	ch     chan models.RouterAnalytics
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewSink starts the background writer.
func NewSink(writer Writer, bufferSize int, logger *zap.Logger) *Sink {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sink{
		writer: writer,
		logger: logger,
		ch:     make(chan models.RouterAnalytics, bufferSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Log queues payload for persistence. It never blocks; a full buffer drops the payload.
func (s *Sink) Log(payload models.RouterAnalytics) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("analytics sink closed, dropping payload", zap.String("artist_handle", payload.ArtistHandle))
		return
	}
	select {
	case s.ch <- payload:
	default:
		s.logger.Warn("analytics buffer full, dropping payload",
			zap.String("artist_handle", payload.ArtistHandle),
			zap.String("reason_code", payload.ReasonCode))
	}
}

// Close stops accepting payloads and waits for the buffer to drain or ctx to end.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) run() {
	defer close(s.done)
	for payload := range s.ch {
		s.write(payload)
	}
}

func (s *Sink) write(payload models.RouterAnalytics) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analytics writer panic", zap.Any("panic", r))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.writer.Write(ctx, payload); err != nil {
		s.logger.Error("analytics write failed",
			zap.Error(err),
			zap.String("artist_handle", payload.ArtistHandle),
			zap.String("reason_code", payload.ReasonCode))
	}
}
