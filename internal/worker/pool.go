package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrPoolStopped = errors.New("worker pool stopped")

type job struct {
	ctx    context.Context
	name   string
	run    func(ctx context.Context) error
	result chan error
}

// Pool выполняет записи в хранилище на фиксированном числе воркеров,
// чтобы ожидание подтверждения одной мутации не блокировало остальные.
type Pool struct {
	logger *zap.Logger
	count  int
	jobs   chan job
	wg     sync.WaitGroup
	stop   chan struct{}
	once   sync.Once
}

func NewPool(logger *zap.Logger, count int) *Pool {
	if count < 1 {
		count = 1
	}
	return &Pool{
		logger: logger,
		count:  count,
		jobs:   make(chan job),
		stop:   make(chan struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("workers", p.count))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) Stop() {
	p.once.Do(func() {
		p.logger.Info("Stopping worker pool...")
		close(p.stop)
		p.wg.Wait()
		p.logger.Info("Worker pool stopped")
	})
}

// Do ставит fn в очередь и ждет результат. Если ctx отменен раньше,
// возвращается ctx.Err(), а сама запись может еще завершиться.
func (p *Pool) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	j := job{
		ctx:    ctx,
		name:   name,
		run:    fn,
		result: make(chan error, 1),
	}

	select {
	case <-p.stop:
		return ErrPoolStopped
	default:
	}

	select {
	case p.jobs <- j:
	case <-p.stop:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			j.result <- p.process(id, j)
		}
	}
}

func (p *Pool) process(workerID int, j job) error {
	start := time.Now()
	err := j.run(j.ctx)
	if err != nil {
		p.logger.Warn("job failed",
			zap.Int("worker", workerID),
			zap.String("job", j.name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	p.logger.Debug("job done",
		zap.Int("worker", workerID),
		zap.String("job", j.name),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
