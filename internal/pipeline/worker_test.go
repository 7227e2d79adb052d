package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reunipet/reunipet/internal/model"
)

// countingIndex records processed record IDs so worker tests can observe jobs
// flowing through the queue.
type countingIndex struct {
	fakeIndex
	mu   sync.Mutex
	seen []string
}

func (c *countingIndex) IndexFace(ctx context.Context, collection, recordID string, image []byte) (string, error) {
	c.mu.Lock()
	c.seen = append(c.seen, recordID)
	c.mu.Unlock()
	return "face", nil
}

func TestWorker_SubmitRejectsWhenQueueFull(t *testing.T) {
	a := newTestAnalyzer(&fakeStore{}, &fakeIndex{}, &fakeNotifier{})
	w := NewWorker(a, Config{Workers: 1, QueueSize: 1}, zerolog.Nop())

	// Nothing is draining the queue; the second submit must be rejected
	// without blocking.
	if !w.Submit(Job{Record: &model.PetRecord{ID: "a"}}) {
		t.Fatal("first submit should be accepted")
	}
	if w.Submit(Job{Record: &model.PetRecord{ID: "b"}}) {
		t.Fatal("second submit should be rejected on a full queue")
	}
}

func TestWorker_ProcessesSubmittedJobs(t *testing.T) {
	idx := &countingIndex{}
	st := &fakeStore{}
	a := newTestAnalyzer(st, idx, &fakeNotifier{})
	w := NewWorker(a, Config{Workers: 2, QueueSize: 8}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	for _, id := range []string{"r1", "r2", "r3"} {
		if !w.Submit(Job{Record: &model.PetRecord{ID: id, Status: model.StatusLost}}) {
			t.Fatalf("submit %s rejected", id)
		}
	}

	deadline := time.After(2 * time.Second)
	for {
		idx.mu.Lock()
		n := len(idx.seen)
		idx.mu.Unlock()
		if n == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("only %d of 3 jobs processed", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
