package fetch

import (
	"context"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// NewPool creates the worker pool batches submit requests to.
func NewPool(size int) (*ants.Pool, error) {
	if size < 1 {
		size = runtime.NumCPU() * 4
	}
	return ants.NewPool(size)
}

// Pending is a request queued on a Batch. Its result is available once the
// batch has been sent.
type Pending struct {
	Request Request

	resp *Response
	err  error
}

// Result returns the response, or ErrNotSent before the batch ran.
func (p *Pending) Result() (*Response, error) {
	return p.resp, p.err
}

// Batch collects requests and sends them concurrently in a single wave.
// Sending is idempotent: later calls return immediately.
type Batch struct {
	client *Client
	pool   *ants.Pool

	mu       sync.Mutex
	pending  []*Pending
	executed bool
}

func NewBatch(client *Client, pool *ants.Pool) (*Batch, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if client == nil {
		client = NewClient()
	}
	return &Batch{client: client, pool: pool}, nil
}

// Add queues req. Requests added after the batch was sent are never sent.
func (b *Batch) Add(req Request) *Pending {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &Pending{Request: req, err: ErrNotSent}
	if !b.executed {
		b.pending = append(b.pending, p)
	}
	return p
}

// Len returns the number of queued requests.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Executed reports whether Send has run.
func (b *Batch) Executed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.executed
}

// Send runs every queued request and waits for all of them. Per-request
// failures are stored on the Pending values.
func (b *Batch) Send(ctx context.Context) error {
	b.mu.Lock()
	if b.executed {
		b.mu.Unlock()
		return nil
	}
	b.executed = true
	pending := b.pending
	b.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range pending {
		p := p
		wg.Add(1)
		task := func() {
			defer wg.Done()
			p.resp, p.err = b.client.Do(ctx, p.Request)
		}
		if err := b.pool.Submit(task); err != nil {
			p.err = err
			wg.Done()
		}
	}
	wg.Wait()
	return ctx.Err()
}
