package provider

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"catalogsearch/internal/platform/fetch"
)

// Round is the batching context of one search round. Every provider of the
// round queues its work here during Prepare and the first Execute sends it
// all; later Executes are no-ops. A new search uses a new Round.
type Round struct {
	client   *fetch.Client
	http     *fetch.Batch
	protocol *ProtocolWave
}

func NewRound(client *fetch.Client, pool *ants.Pool) (*Round, error) {
	if client == nil {
		client = fetch.NewClient()
	}
	batch, err := fetch.NewBatch(client, pool)
	if err != nil {
		return nil, err
	}
	return &Round{client: client, http: batch, protocol: &ProtocolWave{}}, nil
}

// HTTP is the round's request batch for HTTP adapters.
func (r *Round) HTTP() *fetch.Batch { return r.http }

// Protocol is the round's wave of structured-protocol searches.
func (r *Round) Protocol() *ProtocolWave { return r.protocol }

// Client is the HTTP client protocol handles should use.
func (r *Round) Client() *fetch.Client { return r.client }

// ProtocolWave runs every registered search handle concurrently and waits for
// them once, bounded by the largest timeout of any handle.
type ProtocolWave struct {
	mu       sync.Mutex
	handles  []func(context.Context)
	timeout  time.Duration
	executed bool
}

// Add registers a search handle. Handles record their own outcome; handles
// added after Wait ran are never run.
func (w *ProtocolWave) Add(handle func(ctx context.Context), timeout time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.executed {
		return false
	}
	w.handles = append(w.handles, handle)
	if timeout > w.timeout {
		w.timeout = timeout
	}
	return true
}

func (w *ProtocolWave) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.handles)
}

// Wait runs the wave once.
func (w *ProtocolWave) Wait(ctx context.Context) error {
	w.mu.Lock()
	if w.executed {
		w.mu.Unlock()
		return nil
	}
	w.executed = true
	handles, timeout := w.handles, w.timeout
	w.mu.Unlock()

	if len(handles) == 0 {
		return nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var g errgroup.Group
	for _, h := range handles {
		h := h
		g.Go(func() error {
			h(ctx)
			return nil
		})
	}
	return g.Wait()
}
