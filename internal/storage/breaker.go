package storage

import (
	"context"
	"io"
	"time"

	"taskapi/internal/logging"

	"github.com/sony/gobreaker"
)

// BreakerStore fails fast while the wrapped store keeps erroring.
type BreakerStore struct {
	next BlobStore
	cb   *gobreaker.CircuitBreaker
}

var _ BlobStore = (*BreakerStore)(nil)

func NewBreakerStore(next BlobStore, maxFailures uint32, timeout time.Duration) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "blob-store",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

func (s *BreakerStore) Put(ctx context.Context, pathname string, body io.Reader, contentType string) (*Object, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Put(ctx, pathname, body, contentType)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Object), nil
}

func (s *BreakerStore) Delete(ctx context.Context, url string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Delete(ctx, url)
	})
	return err
}

func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}
