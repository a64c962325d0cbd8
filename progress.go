package objsplit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

type Phase int

const (
	PhaseExtract Phase = iota
	PhaseUnify
)

func (p Phase) String() string {
	if p == PhaseUnify {
		return "unify"
	}
	return "extract"
}

// Progress is one fire-and-forget notification. Current counts finished
// units of the phase; units of a parallel phase finish in any order, but
// delivered events always carry Current 1, 2, ..., Total.
type Progress struct {
	Phase   Phase
	Current int
	Total   int
	Message string
}

type ProgressFunc func(Progress)

// Notifier hands progress events to a callback on its own goroutine.
// Notify only appends to an unbounded queue, so workers never wait on a
// slow consumer. A panicking callback is logged and the event dropped.
type Notifier struct {
	fn   ProgressFunc
	log  *zerolog.Logger
	mu   sync.Mutex
	q    []Progress
	seen [2]int
	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewNotifier starts the dispatch goroutine. A nil fn yields a Notifier
// whose methods do nothing.
func NewNotifier(ctx context.Context, fn ProgressFunc) *Notifier {
	n := &Notifier{fn: fn, log: zerolog.Ctx(ctx)}
	if fn == nil {
		return n
	}
	n.wake = make(chan struct{}, 1)
	n.quit = make(chan struct{})
	n.done = make(chan struct{})
	go n.loop()
	return n
}

func (n *Notifier) Notify(p Progress) {
	if n == nil || n.fn == nil {
		return
	}
	n.mu.Lock()
	n.q = append(n.q, p)
	n.mu.Unlock()
	n.signal()
}

// Advance marks one more unit of phase as finished and queues the event.
// Safe for concurrent use.
func (n *Notifier) Advance(phase Phase, total int, msg string) {
	if n == nil || n.fn == nil {
		return
	}
	n.mu.Lock()
	n.seen[phase]++
	n.q = append(n.q, Progress{Phase: phase, Current: n.seen[phase], Total: total, Message: msg})
	n.mu.Unlock()
	n.signal()
}

func (n *Notifier) signal() {
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// Close delivers the queued events and stops the dispatcher.
func (n *Notifier) Close() {
	if n == nil || n.fn == nil {
		return
	}
	n.once.Do(func() { close(n.quit) })
	<-n.done
}

func (n *Notifier) loop() {
	defer close(n.done)
	for {
		select {
		case <-n.wake:
			n.drain()
		case <-n.quit:
			n.drain()
			return
		}
	}
}

func (n *Notifier) drain() {
	for {
		n.mu.Lock()
		batch := n.q
		n.q = nil
		n.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, p := range batch {
			n.deliver(p)
		}
	}
}

func (n *Notifier) deliver(p Progress) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error().Interface("panic", r).Str("phase", p.Phase.String()).Msg("progress callback panicked")
		}
	}()
	n.fn(p)
}
