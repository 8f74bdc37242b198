// Package batch runs one pipeline per input file on a bounded pool of
// workers.
package batch

import (
	"context"
	"log"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"
)

// Run calls fn for items 0..n-1 with at most workers calls in flight. A
// failing item does not stop the others. The returned slice holds the error
// of each item, nil on success. Items not started before ctx is cancelled
// get ctx.Err().
func Run(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		i := i
		g.Go(func() error {
			errs[i] = fn(ctx, i)
			return nil
		})
	}
	g.Wait()
	return errs
}

// Failed counts the non-nil errors in errs.
func Failed(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}

// WithSignals returns a context cancelled on interrupt (and SIGTERM on
// Unix), so a batch stops starting new files.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	notifyExtraSignals(sigCh)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			log.Println("Signal received, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
