package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/ingest"
)

type fakeProcessor struct {
	mu      sync.Mutex
	uploads []ingest.Upload
	running map[uuid.UUID]int
	overlap atomic.Bool
	delay   time.Duration
	fail    error
	release chan struct{}
}

func (f *fakeProcessor) Process(ctx context.Context, u ingest.Upload) (*ingest.Result, error) {
	f.mu.Lock()
	if f.running == nil {
		f.running = make(map[uuid.UUID]int)
	}
	f.running[u.ProjectUUID]++
	if f.running[u.ProjectUUID] > 1 {
		f.overlap.Store(true)
	}
	f.uploads = append(f.uploads, u)
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.running[u.ProjectUUID]--
	f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return &ingest.Result{Format: "CycloneDX"}, nil
}

func waitFor(t *testing.T, p *Pool, token uuid.UUID) TokenStatus {
	t.Helper()
	var st TokenStatus
	require.Eventually(t, func() bool {
		var err error
		st, err = p.Status(token)
		require.Nil(t, err)
		return !st.Processing()
	}, 5*time.Second, 5*time.Millisecond)
	return st
}

func TestPoolProcessesUploads(t *testing.T) {
	proc := &fakeProcessor{}
	var depth atomic.Int64
	p := NewPool(proc, Options{Workers: 2, QueueSize: 4, OnQueueDepth: func(d int) { depth.Store(int64(d)) }})
	p.Start(context.Background())

	project := uuid.New()
	data := []byte(`{"bomFormat":"CycloneDX"}`)
	token, err := p.Submit(context.Background(), project, data)
	require.Nil(t, err)

	st := waitFor(t, p, token)
	assert.Equal(t, StateCompleted, st.State)
	assert.Equal(t, project, st.ProjectUUID)
	require.NotNil(t, st.Result)
	assert.False(t, st.Finished.IsZero())

	proc.mu.Lock()
	require.Len(t, proc.uploads, 1)
	assert.Equal(t, data, proc.uploads[0].Data, "payload survives compression")
	assert.Equal(t, token, proc.uploads[0].Token)
	proc.mu.Unlock()
	assert.Equal(t, int64(0), depth.Load())

	require.NoError(t, p.Shutdown(context.Background()))
	_, err = p.Submit(context.Background(), project, data)
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestPoolRecordsFailures(t *testing.T) {
	proc := &fakeProcessor{fail: ingest.ErrProjectNotFound.Msg("project x does not exist")}
	p := NewPool(proc, Options{Workers: 1, QueueSize: 1})
	p.Start(context.Background())
	defer p.Shutdown(context.Background())

	token, err := p.Submit(context.Background(), uuid.New(), []byte("{}"))
	require.Nil(t, err)
	st := waitFor(t, p, token)
	assert.Equal(t, StateFailed, st.State)
	assert.Contains(t, st.Error, "does not exist")

	_, err = p.Status(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestPoolQueueFull(t *testing.T) {
	proc := &fakeProcessor{release: make(chan struct{})}
	p := NewPool(proc, Options{Workers: 1, QueueSize: 1})
	p.Start(context.Background())

	project := uuid.New()
	first, err := p.Submit(context.Background(), project, []byte("1"))
	require.Nil(t, err)
	require.Eventually(t, func() bool {
		st, _ := p.Status(first)
		return st.State == StateProcessing
	}, 5*time.Second, 5*time.Millisecond)

	_, err = p.Submit(context.Background(), project, []byte("2"))
	require.Nil(t, err)
	_, err = p.Submit(context.Background(), project, []byte("3"))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, p.QueueDepth())

	close(proc.release)
	require.NoError(t, p.Shutdown(context.Background()))
	proc.mu.Lock()
	assert.Len(t, proc.uploads, 2, "shutdown drains the queue")
	proc.mu.Unlock()
}

func TestPoolSerializesProjects(t *testing.T) {
	proc := &fakeProcessor{delay: 5 * time.Millisecond}
	p := NewPool(proc, Options{Workers: 4, QueueSize: 32})
	p.Start(context.Background())

	projects := []uuid.UUID{uuid.New(), uuid.New()}
	var tokens []uuid.UUID
	for i := 0; i < 12; i++ {
		token, err := p.Submit(context.Background(), projects[i%2], []byte("{}"))
		require.Nil(t, err)
		tokens = append(tokens, token)
	}
	for _, token := range tokens {
		waitFor(t, p, token)
	}
	require.NoError(t, p.Shutdown(context.Background()))
	assert.False(t, proc.overlap.Load(), "imports of one project overlapped")
	assert.Equal(t, 0, p.locks.size())
}

func TestShutdownTimeout(t *testing.T) {
	proc := &fakeProcessor{release: make(chan struct{})}
	p := NewPool(proc, Options{Workers: 1, QueueSize: 1})
	p.Start(context.Background())
	_, err := p.Submit(context.Background(), uuid.New(), []byte("{}"))
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	go func() {
		<-ctx.Done()
		close(proc.release)
	}()
	err2 := p.Shutdown(ctx)
	assert.True(t, errors.Is(err2, context.DeadlineExceeded))
}

func TestTokenStorePrunesFinished(t *testing.T) {
	now := time.Now()
	s := newTokenStore(time.Minute, func() time.Time { return now })
	done, running := uuid.New(), uuid.New()
	s.add(done, uuid.New())
	s.add(running, uuid.New())
	s.update(done, func(st *TokenStatus) {
		st.State = StateCompleted
		st.Finished = now
	})

	now = now.Add(2 * time.Minute)
	s.add(uuid.New(), uuid.New())
	_, ok := s.get(done)
	assert.False(t, ok)
	_, ok = s.get(running)
	assert.True(t, ok)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	key := uuid.New()
	unlock := k.Lock(key)
	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		k.Lock(key)()
	}()
	select {
	case <-acquired:
		t.Fatal("lock acquired twice")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired
	assert.Equal(t, 0, k.size())
}
