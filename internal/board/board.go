package board

import (
	"sync"

	"wrmon/internal/models"
)

// Sink receives one call per completed sampling cycle per metric kind.
// Implementations must not block the caller.
type Sink interface {
	PublishNetwork(models.RateSample)
	PublishStorage(models.StorageReport)
}

type Fanout []Sink

func (f Fanout) PublishNetwork(s models.RateSample) {
	for _, sink := range f {
		sink.PublishNetwork(s)
	}
}

func (f Fanout) PublishStorage(r models.StorageReport) {
	for _, sink := range f {
		sink.PublishStorage(r)
	}
}

// Board is the latest-value handoff between the sampling jobs and the
// readers (display, mirror, websocket clients).
type Board struct {
	Network Cell[models.RateSample]
	Storage Cell[models.StorageReport]

	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

type View struct {
	Network        *models.RateSample    `json:"network"`
	Storage        *models.StorageReport `json:"storage"`
	NetworkVersion uint64                `json:"network_version"`
	StorageVersion uint64                `json:"storage_version"`
}

func New() *Board {
	return &Board{subs: map[chan struct{}]struct{}{}}
}

func (b *Board) PublishNetwork(s models.RateSample) {
	b.Network.Store(s)
	b.notify()
}

func (b *Board) PublishStorage(r models.StorageReport) {
	b.Storage.Store(r)
	b.notify()
}

// Subscribe returns a channel that is signalled after publishes. Signals
// coalesce: a slow reader wakes once and reads the latest values.
func (b *Board) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
}

func (b *Board) Snapshot() View {
	var v View
	if s, ver := b.Network.Load(); ver > 0 {
		v.Network, v.NetworkVersion = &s, ver
	}
	if r, ver := b.Storage.Load(); ver > 0 {
		v.Storage, v.StorageVersion = &r, ver
	}
	return v
}

func (b *Board) notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
