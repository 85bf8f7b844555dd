package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingPruner struct {
	mu        sync.Mutex
	calls     int
	retention time.Duration
	err       error
}

func (p *countingPruner) Prune(retention time.Duration) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.retention = retention
	return 3, p.err
}

func (p *countingPruner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestAuditPruneWorker_RunsImmediatelyAndOnTick(t *testing.T) {
	p := &countingPruner{}
	w := NewAuditPruneWorker(p, 48*time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for p.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if p.count() < 3 {
		t.Fatalf("pruned %d times, want at least 3", p.count())
	}
	if p.retention != 48*time.Hour {
		t.Errorf("retention = %v", p.retention)
	}
}

func TestAuditPruneWorker_SurvivesErrors(t *testing.T) {
	p := &countingPruner{err: errors.New("db down")}
	w := NewAuditPruneWorker(p, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)

	if p.count() != 1 {
		t.Errorf("calls = %d, want 1", p.count())
	}
}
