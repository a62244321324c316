package utils

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// Workers is a set of goroutines sharing one context that Stop cancels.
type Workers struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// StartWorkers runs each function in its own goroutine. A worker that panics is logged and
// counted as returned.
func StartWorkers(funcs ...func(context.Context)) *Workers {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Workers{cancel: cancel}
	w.wg.Add(len(funcs))
	for _, f := range funcs {
		goutils.PanicCapturingGo(func() {
			defer w.wg.Done()
			f(ctx)
		})
	}
	return w
}

// Stop cancels the workers and waits for all of them to return. Later calls return at once.
func (w *Workers) Stop() {
	w.cancel()
	w.wg.Wait()
}
