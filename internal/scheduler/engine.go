package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

type Kind string

const (
	// KindReconcile asks for an authoritative task reload.
	KindReconcile Kind = "reconcile"
	// KindHistory asks for the energy history to be fetched again.
	KindHistory Kind = "history"
)

// Event fires at TriggerAt. Events sharing a non-empty Key are coalesced:
// while one is pending, later ones with the same key are ignored.
type Event struct {
	Key       string
	Kind      Kind
	Reason    string
	TriggerAt time.Time
}

type queueItem struct {
	event Event
	seq   uint64
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].event.TriggerAt.Equal(pq[j].event.TriggerAt) {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].event.TriggerAt.Before(pq[j].event.TriggerAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

type Engine struct {
	mu        sync.Mutex
	queue     priorityQueue
	pending   map[string]bool
	seq       uint64
	out       chan Event
	wakeup    chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
	dropped   uint64
	coalesced uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:   make(priorityQueue, 0),
		pending: make(map[string]bool),
		out:     make(chan Event, bufferSize),
		wakeup:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// C delivers due events. It is closed when the engine stops.
func (e *Engine) C() <-chan Event {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule queues ev and reports whether it was accepted or coalesced
// into an already pending event with the same key.
func (e *Engine) Schedule(ev Event) (bool, error) {
	if ev.TriggerAt.IsZero() {
		return false, ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false, ErrStopped
	}
	if ev.Key != "" {
		if e.pending[ev.Key] {
			atomic.AddUint64(&e.coalesced, 1)
			return false, nil
		}
		e.pending[ev.Key] = true
	}

	e.seq++
	heap.Push(&e.queue, queueItem{event: ev, seq: e.seq})
	e.signalWakeup()
	return true, nil
}

// After schedules an event of kind keyed by kind to fire after delay.
func (e *Engine) After(kind Kind, reason string, delay time.Duration) (bool, error) {
	return e.Schedule(Event{
		Key:       string(kind),
		Kind:      kind,
		Reason:    reason,
		TriggerAt: time.Now().UTC().Add(delay),
	})
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) Coalesced() uint64 {
	return atomic.LoadUint64(&e.coalesced)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.TriggerAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(time.Now().UTC())
			for _, ev := range due {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Event{}, false
	}
	return e.queue[0].event, true
}

func (e *Engine) popDue(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Event, 0)
	for len(e.queue) > 0 {
		next := e.queue[0].event
		if next.TriggerAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		if item.event.Key != "" {
			delete(e.pending, item.event.Key)
		}
		out = append(out, item.event)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
