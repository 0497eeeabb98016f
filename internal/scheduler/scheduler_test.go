package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type manualTickers struct {
	mu    sync.Mutex
	chans map[time.Duration]chan time.Time
}

func newManualTickers(intervals ...time.Duration) *manualTickers {
	m := &manualTickers{chans: map[time.Duration]chan time.Time{}}
	for _, d := range intervals {
		m.chans[d] = make(chan time.Time)
	}
	return m
}

func (m *manualTickers) factory(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chans[d], func() {}
}

func (m *manualTickers) tick(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case m.chans[d] <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatalf("ticker %v not consumed", d)
	}
}

func TestNTicksPublishNTimes(t *testing.T) {
	const n = 25
	tickers := newManualTickers(time.Second, 5*time.Second)
	var network, storage atomic.Int64
	s := New(discardLogger(),
		Job{Name: "network", Interval: time.Second, Run: func(context.Context) { network.Add(1) }},
		Job{Name: "storage", Interval: 5 * time.Second, Run: func(context.Context) { storage.Add(1) }},
	)
	s.newTicker = tickers.factory

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	for i := 0; i < n; i++ {
		tickers.tick(t, time.Second)
		if i%5 == 4 {
			tickers.tick(t, 5*time.Second)
		}
	}
	cancel()
	<-done

	if got := network.Load(); got != n {
		t.Fatalf("network runs = %d, want %d", got, n)
	}
	if got := storage.Load(); got != n/5 {
		t.Fatalf("storage runs = %d, want %d", got, n/5)
	}
}

func TestSlowJobDoesNotBlockOthers(t *testing.T) {
	tickers := newManualTickers(time.Second, 5*time.Second)
	release := make(chan struct{})
	var fast atomic.Int64
	s := New(discardLogger(),
		Job{Name: "slow", Interval: 5 * time.Second, Run: func(context.Context) { <-release }},
		Job{Name: "fast", Interval: time.Second, Run: func(context.Context) { fast.Add(1) }},
	)
	s.newTicker = tickers.factory

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	tickers.tick(t, 5*time.Second)
	for i := 0; i < 10; i++ {
		tickers.tick(t, time.Second)
	}
	close(release)
	cancel()
	<-done
	if got := fast.Load(); got != 10 {
		t.Fatalf("fast runs = %d, want 10 while slow job was stuck", got)
	}
}

func TestImmediateAndPanicRecovery(t *testing.T) {
	tickers := newManualTickers(time.Second)
	var runs atomic.Int64
	s := New(discardLogger(), Job{Name: "flaky", Interval: time.Second, Immediate: true, Run: func(context.Context) {
		if runs.Add(1) == 2 {
			panic("boom")
		}
	}})
	s.newTicker = tickers.factory

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	tickers.tick(t, time.Second)
	tickers.tick(t, time.Second)
	cancel()
	<-done
	if got := runs.Load(); got != 3 {
		t.Fatalf("runs = %d, want 3 (immediate + 2 ticks, panic absorbed)", got)
	}
}

func TestRunStopsPromptlyOnCancel(t *testing.T) {
	s := New(discardLogger(),
		Job{Name: "a", Interval: time.Millisecond, Run: func(context.Context) {}},
		Job{Name: "b", Interval: time.Hour, Run: func(context.Context) {}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
