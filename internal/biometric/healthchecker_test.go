package biometric

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reunipet/reunipet/internal/model"
)

type fakeIndex struct {
	mu                 sync.Mutex
	ensuredCollections []string
	ensureErr          error
}

func (f *fakeIndex) IndexFace(context.Context, string, string, []byte) (string, error) {
	panic("unused")
}
func (f *fakeIndex) SearchByImage(context.Context, string, []byte, float32) (*model.Match, error) {
	panic("unused")
}
func (f *fakeIndex) EnsureCollection(_ context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensuredCollections = append(f.ensuredCollections, collection)
	return nil
}

func (f *fakeIndex) setEnsureErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureErr = err
}

// pingableIndex additionally implements health.HealthPinger.
type pingableIndex struct {
	fakeIndex
	mu      sync.Mutex
	pingErr error
	pings   int
}

func (p *pingableIndex) HealthPing(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pings++
	return p.pingErr
}

func (p *pingableIndex) setPingErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pingErr = err
}

func waitForHealth(t *testing.T, hc *IndexHealthChecker, want bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for hc.IsHealthy() != want {
		select {
		case <-deadline:
			t.Fatalf("checker never reported healthy=%v", want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestIndexHealthChecker_UsesHealthPing(t *testing.T) {
	idx := &pingableIndex{}
	hc := NewIndexHealthChecker(idx, "pets-lost", zerolog.Nop(), time.Second)
	if hc.IsHealthy() {
		t.Fatal("checker must start unhealthy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hc.Start(ctx, 10*time.Millisecond)

	waitForHealth(t, hc, true)
	idx.fakeIndex.mu.Lock()
	ensured := len(idx.ensuredCollections)
	idx.fakeIndex.mu.Unlock()
	if ensured != 0 {
		t.Fatal("fallback probe ran although the index implements HealthPing")
	}

	idx.setPingErr(errors.New("rekognition unreachable"))
	waitForHealth(t, hc, false)

	idx.setPingErr(nil)
	waitForHealth(t, hc, true)
}

func TestIndexHealthChecker_FallsBackToEnsureCollection(t *testing.T) {
	idx := &fakeIndex{}
	hc := NewIndexHealthChecker(idx, "pets-lost", zerolog.Nop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hc.Start(ctx, 10*time.Millisecond)

	waitForHealth(t, hc, true)
	idx.mu.Lock()
	var probedColl string
	if len(idx.ensuredCollections) > 0 {
		probedColl = idx.ensuredCollections[0]
	}
	idx.mu.Unlock()
	if probedColl != "pets-lost" {
		t.Fatalf("fallback probed collection %q, want pets-lost", probedColl)
	}

	idx.setEnsureErr(errors.New("access denied"))
	waitForHealth(t, hc, false)
}

func TestIndexHealthChecker_Name(t *testing.T) {
	hc := NewIndexHealthChecker(&fakeIndex{}, "c", zerolog.Nop(), time.Second)
	if hc.Name() != "biometric" {
		t.Fatalf("name = %q", hc.Name())
	}
}
