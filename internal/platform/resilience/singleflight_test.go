package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	var shared atomic.Int32

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err, dup := g.Do("season:2025", func() (any, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
			if dup {
				shared.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
	if got := shared.Load(); got != workers-1 {
		t.Fatalf("expected %d shared results, got %d", workers-1, got)
	}
}

func TestSingleFlight_ErrorIsNotRemembered(t *testing.T) {
	var g SingleFlight
	boom := errors.New("boom")

	if _, err, _ := g.Do("k", func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, err, _ := g.Do("k", func() (any, error) { return 42, nil })
	if err != nil || v.(int) != 42 {
		t.Fatalf("expected fresh call, got %v, %v", v, err)
	}
}

func TestSingleFlight_PanicReleasesKey(t *testing.T) {
	var g SingleFlight

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected panic to reach the leader")
			}
		}()
		_, _, _ = g.Do("k", func() (any, error) { panic("boom") })
	}()

	v, err, _ := g.Do("k", func() (any, error) { return "ok", nil })
	if err != nil || v.(string) != "ok" {
		t.Fatalf("expected key to be usable after panic, got %v, %v", v, err)
	}
}
