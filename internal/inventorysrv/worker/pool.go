// Package worker runs BOM imports in the background. Uploads wait in a
// bounded queue; imports of the same project never run concurrently.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/apperrors"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/ingest"
)

// Processor imports one upload.
type Processor interface {
	Process(ctx context.Context, u ingest.Upload) (*ingest.Result, error)
}

type Options struct {
	Workers   int
	QueueSize int
	// TokenTTL is how long finished upload states stay queryable.
	TokenTTL time.Duration
	// OnQueueDepth is called whenever the number of queued uploads changes.
	OnQueueDepth func(depth int)
}

type job struct {
	token   uuid.UUID
	project uuid.UUID
	payload []byte // snappy block
}

type Pool struct {
	proc   Processor
	opts   Options
	queue  chan job
	locks  *keyedMutex
	tokens *tokenStore

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
}

func NewPool(proc Processor, opts Options) *Pool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = time.Hour
	}
	return &Pool{
		proc:   proc,
		opts:   opts,
		queue:  make(chan job, opts.QueueSize),
		locks:  newKeyedMutex(),
		tokens: newTokenStore(opts.TokenTTL, time.Now),
	}
}

// Start launches the workers. They stop once Shutdown drains the queue or
// ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
	log.Ctx(ctx).Info().Int("workers", p.opts.Workers).Int("queue_size", p.opts.QueueSize).Msg("upload workers started")
}

// Submit queues an upload and returns its token.
func (p *Pool) Submit(ctx context.Context, projectUUID uuid.UUID, data []byte) (uuid.UUID, apperrors.Error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return uuid.Nil, ErrShuttingDown
	}

	token := uuid.New()
	p.tokens.add(token, projectUUID)
	j := job{token: token, project: projectUUID, payload: snappy.Encode(nil, data)}
	select {
	case p.queue <- j:
	default:
		p.tokens.remove(token)
		log.Ctx(ctx).Warn().Str("project_uuid", projectUUID.String()).Msg("upload queue full")
		return uuid.Nil, ErrQueueFull
	}
	p.reportDepth()
	log.Ctx(ctx).Info().
		Str("project_uuid", projectUUID.String()).
		Str("bom_upload_token", token.String()).
		Int("bytes", len(data)).
		Int("queued_bytes", len(j.payload)).
		Msg("upload queued")
	return token, nil
}

// Status returns the state of an upload.
func (p *Pool) Status(token uuid.UUID) (TokenStatus, apperrors.Error) {
	st, ok := p.tokens.get(token)
	if !ok {
		return TokenStatus{}, ErrUnknownToken.Msgf("upload token %s not found", token)
	}
	return st, nil
}

// QueueDepth is the number of uploads waiting for a worker.
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// Shutdown stops accepting uploads and waits for the queue to drain. When
// ctx ends first, running imports are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	cancel := p.cancel
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		if cancel != nil {
			cancel()
		}
		return nil
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		<-done
		return ctx.Err()
	}
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			p.reportDepth()
			p.handle(ctx, j)
		}
	}
}

func (p *Pool) handle(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(ctx).Error().Interface("panic", r).Str("bom_upload_token", j.token.String()).Msg("import panicked")
			p.finish(j.token, nil, ErrWorker.Msgf("import panicked: %v", r))
		}
	}()

	unlock := p.locks.Lock(j.project)
	defer unlock()

	p.tokens.update(j.token, func(st *TokenStatus) { st.State = StateProcessing })
	data, err := snappy.Decode(nil, j.payload)
	if err != nil {
		p.finish(j.token, nil, ErrCorruptJob.Err(err))
		return
	}
	res, perr := p.proc.Process(ctx, ingest.Upload{Token: j.token, ProjectUUID: j.project, Data: data})
	p.finish(j.token, res, perr)
}

func (p *Pool) finish(token uuid.UUID, res *ingest.Result, err error) {
	p.tokens.update(token, func(st *TokenStatus) {
		st.Finished = time.Now().UTC()
		st.Result = res
		if err != nil {
			st.State = StateFailed
			st.Error = err.Error()
			if ae, ok := err.(apperrors.Error); ok {
				st.Error = ae.ErrorAll()
			}
			return
		}
		st.State = StateCompleted
	})
}

func (p *Pool) reportDepth() {
	if p.opts.OnQueueDepth != nil {
		p.opts.OnQueueDepth(len(p.queue))
	}
}
