package downloader

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"tumbledee/pkg/errors"
	"tumbledee/pkg/logger"
	"tumbledee/pkg/storage"
)

// Job is one image to fetch
type Job struct {
	URL    string
	PostID string
}

// Result is the outcome of one Job
type Result struct {
	Job      Job
	File     string
	Path     string
	Skipped  bool
	Replaced bool
	Err      error
	Size     int
	Duration time.Duration
}

// ImageFetcher downloads the body behind a URL
type ImageFetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// FileStore persists a downloaded body under a file name
type FileStore interface {
	SaveFile(r io.Reader, name string) (string, error)
	Overwrites(name string) int
}

// Pool downloads batches of images with at most workers requests in flight.
// A URL is requested at most once over the lifetime of the pool; later jobs
// for the same URL are reported as skipped.
type Pool struct {
	workers int
	client  ImageFetcher
	store   FileStore
	logger  logger.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewPool creates a pool. workers below 1 means strictly sequential.
func NewPool(workers int, client ImageFetcher, store FileStore, log logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{
		workers: workers,
		client:  client,
		store:   store,
		logger:  log,
		seen:    make(map[string]struct{}),
	}
}

// Run processes jobs and returns one Result per job, in job order. Failed
// downloads are reported in their Result and never stop the batch. The
// returned error is non-nil only when ctx ends the run.
func (p *Pool) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, job := range jobs {
		results[i].Job = job
		if err := ctx.Err(); err != nil {
			for j := i; j < len(jobs); j++ {
				results[j] = Result{Job: jobs[j], Err: errors.NewAborted(err)}
			}
			break
		}

		if !p.claim(job.URL) {
			results[i].Skipped = true
			continue
		}

		i, job := i, job
		g.Go(func() error {
			results[i] = p.process(ctx, job)
			if errors.IsType(results[i].Err, errors.ErrorTypeAborted) {
				return results[i].Err
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = errors.NewAborted(ctx.Err())
	}

	for _, r := range results {
		if errors.IsType(r.Err, errors.ErrorTypeAborted) {
			continue
		}
		logger.LogDownload(p.logger, r.Job.URL, r.File, r.Skipped, r.Replaced, r.Err)
	}

	return results, err
}

// claim marks url as requested and reports whether it was new
func (p *Pool) claim(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.seen[url]; dup {
		return false
	}
	p.seen[url] = struct{}{}
	return true
}

func (p *Pool) process(ctx context.Context, job Job) Result {
	start := time.Now()
	result := Result{Job: job}

	name, err := storage.FileNameFromURL(job.URL)
	if err != nil {
		result.Err = errors.NewDownloadError(job.URL, 0, "cannot derive file name", err)
		return result
	}
	result.File = name

	data, err := p.client.Download(ctx, job.URL)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Size = len(data)

	path, err := p.store.SaveFile(bytes.NewReader(data), name)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	result.Path = path
	result.Replaced = p.store.Overwrites(name) > 0
	result.Duration = time.Since(start)
	return result
}
