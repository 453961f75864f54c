package scheduler

import (
	"testing"
	"time"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if _, err := engine.Schedule(Event{Reason: "later", Kind: KindReconcile, TriggerAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if _, err := engine.Schedule(Event{Reason: "sooner", Kind: KindHistory, TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitEvent(t, engine.C(), time.Second)
	second := waitEvent(t, engine.C(), time.Second)
	if first.Reason != "sooner" || second.Reason != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.Reason, second.Reason)
	}
}

func TestEngineCoalescesPendingKeys(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	accepted, err := engine.After(KindReconcile, "complete failed", 30*time.Millisecond)
	if err != nil || !accepted {
		t.Fatalf("first reconcile should be accepted: accepted=%v err=%v", accepted, err)
	}
	accepted, err = engine.After(KindReconcile, "rename failed", 10*time.Millisecond)
	if err != nil || accepted {
		t.Fatalf("second reconcile should coalesce: accepted=%v err=%v", accepted, err)
	}
	if engine.Coalesced() != 1 || engine.Pending() != 1 {
		t.Fatalf("unexpected counters: coalesced=%d pending=%d", engine.Coalesced(), engine.Pending())
	}

	ev := waitEvent(t, engine.C(), time.Second)
	if ev.Kind != KindReconcile || ev.Reason != "complete failed" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	accepted, err = engine.After(KindReconcile, "again", time.Millisecond)
	if err != nil || !accepted {
		t.Fatalf("key should be free once fired: accepted=%v err=%v", accepted, err)
	}
	waitEvent(t, engine.C(), time.Second)
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if _, err := engine.Schedule(Event{Kind: KindReconcile, TriggerAt: now}); err != nil {
			t.Fatalf("schedule event: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0, got %d", engine.Dropped())
	}
}

func TestScheduleValidatesTriggerTimeAndStop(t *testing.T) {
	engine := NewEngine(1)
	if _, err := engine.Schedule(Event{Kind: KindReconcile}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
	engine.Start()
	engine.Stop()
	engine.Stop()
	if _, err := engine.After(KindReconcile, "late", time.Millisecond); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if _, ok := <-engine.C(); ok {
		t.Fatal("expected output channel closed after stop")
	}
}

func waitEvent(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}
