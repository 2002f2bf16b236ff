package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult implements Result
type mockResult struct {
	id  int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	id        int
	duration  time.Duration
	shouldErr bool
	executed  *int32 // atomic counter
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{id: j.id, err: errors.New("job error")}
	}
	return &mockResult{id: j.id}
}

func TestNewPoolWithContext_Workers(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{0, 1},
		{-1, 1},
	}
	for _, tt := range tests {
		if got := NewPoolWithContext(context.Background(), tt.in).workers; got != tt.want {
			t.Errorf("NewPoolWithContext(%d) workers = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPool_RunManyJobs(t *testing.T) {
	// Far more jobs than the queue and result buffers hold
	pool := NewPoolWithContext(context.Background(), 2)

	var executed int32
	count := 500
	jobs := make([]Job, count)
	for i := range jobs {
		jobs[i] = &mockJob{id: i, executed: &executed}
	}

	done := make(chan []Result)
	go func() {
		done <- pool.Run(jobs, nil)
	}()

	select {
	case results := <-done:
		if len(results) != count {
			t.Errorf("expected %d results, got %d", count, len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not complete")
	}

	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, executed)
	}
}

func TestPool_RunOnResult(t *testing.T) {
	pool := NewPoolWithContext(context.Background(), 4)

	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = &mockJob{id: i}
	}

	// onResult runs on the collecting goroutine only, so no locking is needed
	seen := make(map[int]bool)
	calls := 0
	results := pool.Run(jobs, func(r Result) {
		calls++
		seen[r.(*mockResult).id] = true
	})

	if calls != len(jobs) {
		t.Errorf("expected %d callbacks, got %d", len(jobs), calls)
	}
	if len(seen) != len(jobs) {
		t.Errorf("expected %d distinct results, got %d", len(jobs), len(seen))
	}
	if len(results) != len(jobs) {
		t.Errorf("expected %d results, got %d", len(jobs), len(results))
	}
}

func TestPool_RunEmpty(t *testing.T) {
	pool := NewPoolWithContext(context.Background(), 3)
	results := pool.Run(nil, func(Result) {
		t.Error("callback must not run without jobs")
	})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestPool_RunCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPoolWithContext(ctx, 2)

	jobs := make([]Job, 100)
	for i := range jobs {
		jobs[i] = &mockJob{id: i, duration: 20 * time.Millisecond}
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	done := make(chan []Result)
	go func() {
		done <- pool.Run(jobs, nil)
	}()

	select {
	case results := <-done:
		if len(results) >= len(jobs) {
			t.Errorf("expected cancellation to stop early, got %d results", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// concurrencyJob tracks max concurrent executions
type concurrencyJob struct {
	start    func()
	end      func()
	duration time.Duration
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	if j.start != nil {
		j.start()
	}
	time.Sleep(j.duration)
	if j.end != nil {
		j.end()
	}
	return &mockResult{}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 10
	pool := NewPoolWithContext(context.Background(), workers)

	var current int32
	var maxConcurrent int32
	var completed int32
	var mu sync.Mutex

	totalJobs := 50
	jobs := make([]Job, 0, totalJobs)

	for i := 0; i < totalJobs; i++ {
		jobs = append(jobs, &concurrencyJob{
			start: func() {
				curr := atomic.AddInt32(&current, 1)
				mu.Lock()
				if curr > maxConcurrent {
					maxConcurrent = curr
				}
				mu.Unlock()
			},
			end: func() {
				atomic.AddInt32(&current, -1)
				atomic.AddInt32(&completed, 1)
			},
			duration: 10 * time.Millisecond,
		})
	}

	pool.Run(jobs, nil)

	if atomic.LoadInt32(&completed) != int32(totalJobs) {
		t.Errorf("expected %d completed jobs, got %d", totalJobs, completed)
	}

	mu.Lock()
	max := maxConcurrent
	mu.Unlock()

	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}

	if max <= 1 {
		t.Logf("Warning: max concurrency was %d, expected > 1", max)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	pool := NewPoolWithContext(context.Background(), 2)

	results := pool.Run([]Job{&mockJob{shouldErr: true}, &mockJob{shouldErr: false}}, nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	errs := 0
	for _, res := range results {
		if res.GetError() != nil {
			errs++
		}
	}

	if errs != 1 {
		t.Errorf("expected 1 error, got %d", errs)
	}
}

func TestPool_SubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPoolWithContext(ctx, 2)
	cancel()

	// The queue has free slots, so only the context check keeps jobs out
	for i := 0; i < 50; i++ {
		if pool.Submit(&mockJob{}) {
			t.Fatalf("attempt %d: expected Submit to report the job as not queued", i)
		}
	}
	if len(pool.jobQueue) != 0 {
		t.Errorf("expected empty queue, got %d jobs", len(pool.jobQueue))
	}
}

func TestPool_RunPreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := NewPoolWithContext(ctx, 2)

	var executed int32
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = &mockJob{id: i, executed: &executed}
	}

	done := make(chan []Result)
	go func() {
		done <- pool.Run(jobs, nil)
	}()

	select {
	case results := <-done:
		if len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return for a cancelled pool")
	}
	if n := atomic.LoadInt32(&executed); n != 0 {
		t.Errorf("expected no jobs executed, got %d", n)
	}
}
