package utils

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolFull 队列已满或协程池已停止
var ErrPoolFull = errors.New("worker pool queue is full")

// WorkerPool 通用协程池
// 用于把不影响响应结果的副作用（事件投递）移出请求路径
type WorkerPool struct {
	jobQueue  chan func()
	workerNum int
	logger    *zap.Logger

	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

// NewWorkerPool 创建一个新的协程池
func NewWorkerPool(workerNum, queueSize int, logger *zap.Logger) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		jobQueue:  make(chan func(), queueSize),
		workerNum: workerNum,
		logger:    logger,
	}
}

// Start 启动协程池
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerNum; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for job := range p.jobQueue {
				p.run(workerID, job)
			}
		}(i)
	}
	p.logger.Info("worker pool started", zap.Int("workers", p.workerNum))
}

// run 使用 recover 防止单个任务 panic 导致 worker 挂掉
func (p *WorkerPool) run(workerID int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker job panic", zap.Int("worker", workerID), zap.Any("panic", r))
		}
	}()
	job()
}

// TrySubmit 非阻塞提交任务，队列满或已停止时返回 ErrPoolFull
func (p *WorkerPool) TrySubmit(job func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolFull
	}
	select {
	case p.jobQueue <- job:
		return nil
	default:
		return ErrPoolFull
	}
}

// Stop 停止接收新任务，并等待队列中已有任务执行完
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.jobQueue)
		p.mu.Unlock()
		p.wg.Wait()
	})
}
