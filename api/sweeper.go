/*
sweeper.go - Automated order expiry sweeper

PURPOSE:
  Periodically scans active orders and moves the ones whose expiry time
  has passed into the expired status.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates the actual sweep to OrderService.ExpireDue
  - Expiry never touches commission fields; realized amounts survive

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewExpirySweeper(handler)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - sales/service.go: ExpireDue
  - sales/lifecycle.go: IsExpired predicate
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// ExpirySweeper moves overdue active orders to expired.
type ExpirySweeper struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewExpirySweeper creates a new sweeper.
func NewExpirySweeper(handler *Handler) *ExpirySweeper {
	return &ExpirySweeper{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (es *ExpirySweeper) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.wg.Add(1)

	go es.run()

	log.Printf("[Sweeper] Started with check interval: %v", es.CheckInterval)
}

// Stop stops the sweeper.
func (es *ExpirySweeper) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		es.ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (es *ExpirySweeper) run() {
	defer es.wg.Done()

	// Run immediately on start
	es.sweep()

	for {
		select {
		case <-es.ticker.C:
			es.sweep()
		case <-es.stop:
			return
		}
	}
}

func (es *ExpirySweeper) sweep() {
	ctx := context.Background()
	now := es.Handler.Now()

	n, err := es.Handler.Service.ExpireDue(ctx, now)
	if err != nil {
		log.Printf("[Sweeper] Sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[Sweeper] Expired %d order(s)", n)
	}
}
