package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"element-digitizer/src/annotation"
	"element-digitizer/src/capture"
	"element-digitizer/src/store"
)

// SaveCallback is invoked on save completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type SaveCallback func(paths store.SavedPaths, err error)

// SaveJob is one record plus its cropped screenshot, ready to persist.
type SaveJob struct {
	Module string
	Record annotation.Record
	Bitmap capture.Bitmap
}

// Pool is a fixed-size save worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	store *store.Store
	jobs  chan job
	wg    sync.WaitGroup
}

type job struct {
	ctx context.Context
	sj  SaveJob
	cb  SaveCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int, st *store.Store) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{store: st, jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: Saving element %q (%dx%d crop)", j.sj.Record.ElementID, j.sj.Bitmap.Width, j.sj.Bitmap.Height)
				paths, err := p.saveWithContext(j.ctx, j.sj)
				log.Printf("Worker: Save completed, err=%v", err)
				j.cb(paths, err)
			}
		}()
	}
}

// Submit enqueues a save job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, sj SaveJob, cb SaveCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, sj: sj, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// saveWithContext wraps Store.Save with a deadline-aware path.
func (p *Pool) saveWithContext(ctx context.Context, sj SaveJob) (store.SavedPaths, error) {
	if err := ctx.Err(); err != nil {
		return store.SavedPaths{}, err
	}
	// Fast path: no deadline means a plain synchronous save.
	if _, ok := ctx.Deadline(); !ok {
		return p.store.Save(sj.Module, sj.Record, sj.Bitmap)
	}
	resCh := make(chan struct {
		paths store.SavedPaths
		err   error
	}, 1)
	go func() {
		paths, err := p.store.Save(sj.Module, sj.Record, sj.Bitmap)
		resCh <- struct {
			paths store.SavedPaths
			err   error
		}{paths, err}
	}()
	select {
	case r := <-resCh:
		return r.paths, r.err
	case <-ctx.Done():
		// The underlying write may still finish in the background; report timeout.
		return store.SavedPaths{}, ctx.Err()
	}
}
