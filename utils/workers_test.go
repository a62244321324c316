package utils

import (
	"context"
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestWorkers(t *testing.T) {
	var stopped atomic.Int32
	ready := make(chan struct{}, 2)
	worker := func(ctx context.Context) {
		ready <- struct{}{}
		<-ctx.Done()
		stopped.Add(1)
	}

	w := StartWorkers(worker, worker)
	<-ready
	<-ready
	test.That(t, stopped.Load(), test.ShouldEqual, int32(0))

	w.Stop()
	test.That(t, stopped.Load(), test.ShouldEqual, int32(2))
	w.Stop()
}

func TestWorkersSurvivePanic(t *testing.T) {
	var ran atomic.Bool
	w := StartWorkers(
		func(context.Context) { panic("boom") },
		func(ctx context.Context) {
			<-ctx.Done()
			ran.Store(true)
		},
	)
	w.Stop()
	test.That(t, ran.Load(), test.ShouldBeTrue)
}
