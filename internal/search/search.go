// Package search runs product searches per client. A newer search from the same
// client cancels the older one, and only the latest search may deliver results.
package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
	"github.com/victorcamacaro253/farmacia-web/prometheus"
)

// ErrSuperseded is returned by a search that a newer search from the same client replaced
var ErrSuperseded = errors.New("search superseded")

// Searcher finds products by term. *catalog.Catalog satisfies it.
type Searcher interface {
	Search(term string) []model.Product
}

// Result is the outcome of a search that was still current when it finished
type Result struct {
	Query    string          `json:"query"`
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
	Seq      uint64          `json:"seq"`
}

type pending struct {
	seq    uint64
	cancel context.CancelFunc
}

// Coordinator tracks the in-flight search of each client
type Coordinator struct {
	searcher Searcher
	delay    time.Duration
	seq      atomic.Uint64

	mu      sync.Mutex
	pending map[string]pending
}

// NewCoordinator creates a coordinator. delay simulates latency and may be zero.
func NewCoordinator(searcher Searcher, delay time.Duration) *Coordinator {
	return &Coordinator{
		searcher: searcher,
		delay:    delay,
		pending:  make(map[string]pending),
	}
}

// Search runs term for clientID, cancelling that client's previous search
func (c *Coordinator) Search(ctx context.Context, clientID, term string) (Result, error) {
	seq := c.seq.Add(1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if prev, ok := c.pending[clientID]; ok {
		prev.cancel()
	}
	c.pending[clientID] = pending{seq: seq, cancel: cancel}
	c.mu.Unlock()
	defer c.finish(clientID, seq)

	if err := c.wait(ctx); err != nil {
		if !c.isLatest(clientID, seq) {
			prometheus.RecordSearch("superseded")
			return Result{}, ErrSuperseded
		}
		prometheus.RecordSearch("cancelled")
		return Result{}, err
	}

	products := c.searcher.Search(term)
	if !c.isLatest(clientID, seq) {
		prometheus.RecordSearch("superseded")
		return Result{}, ErrSuperseded
	}

	if products == nil {
		products = []model.Product{}
	}
	if len(products) == 0 {
		prometheus.RecordSearch("empty")
	} else {
		prometheus.RecordSearch("completed")
	}
	return Result{Query: term, Products: products, Total: len(products), Seq: seq}, nil
}

// Pending reports how many clients have a search in flight
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Coordinator) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Coordinator) isLatest(clientID string, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[clientID]
	return ok && p.seq == seq
}

func (c *Coordinator) finish(clientID string, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[clientID]; ok && p.seq == seq {
		delete(c.pending, clientID)
	}
}
