package scraper

import (
	"context"
	"io"
	"time"

	"tumbledee/internal/downloader"
	"tumbledee/pkg/checkpoint"
	"tumbledee/pkg/errors"
	"tumbledee/pkg/jsontree"
	"tumbledee/pkg/logger"
	"tumbledee/pkg/markup"
	"tumbledee/pkg/tumblr"
)

// State is the position of the pagination loop
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateDispatching
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateDispatching:
		return "dispatching"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StopReason explains why the loop left the Requesting state for good
type StopReason string

const (
	StopCompleted    StopReason = "completed"
	StopNoPosts      StopReason = "no posts"
	StopRemoteError  StopReason = "remote error"
	StopNetworkError StopReason = "network error"
	StopParseError   StopReason = "parse error"
	StopAborted      StopReason = "aborted"
)

// RunConfig is the immutable input of one run
type RunConfig struct {
	Target  tumblr.Target
	Number  int
	Offset  int
	Resume  bool
	Workers int
}

// Summary totals what a run did
type Summary struct {
	Pages           int
	Posts           int
	PhotoPosts      int
	TextPosts       int
	Skipped         int
	ImagesSaved     int
	ImagesFailed    int
	ImagesDuplicate int
	ImagesReplaced  int
	Resumed         bool
	NextOffset      int
	Remaining       int
	FinalState      State
	StopReason      StopReason
	Duration        time.Duration
}

// Fields returns the summary as structured log fields
func (s *Summary) Fields() map[string]interface{} {
	return map[string]interface{}{
		"pages":            s.Pages,
		"posts":            s.Posts,
		"photo_posts":      s.PhotoPosts,
		"text_posts":       s.TextPosts,
		"skipped_posts":    s.Skipped,
		"images_saved":     s.ImagesSaved,
		"images_failed":    s.ImagesFailed,
		"images_duplicate": s.ImagesDuplicate,
		"images_replaced":  s.ImagesReplaced,
		"resumed":          s.Resumed,
		"next_offset":      s.NextOffset,
		"remaining":        s.Remaining,
		"state":            s.FinalState.String(),
		"stop_reason":      string(s.StopReason),
		"duration":         s.Duration,
	}
}

// ClampNumber limits a requested post count to 0..MaxTotalPosts
func ClampNumber(n int) int {
	if n < 0 {
		return 0
	}
	if n > tumblr.MaxTotalPosts {
		return tumblr.MaxTotalPosts
	}
	return n
}

// PlanPages returns the page windows a run of number posts starting at
// offset will request when every page succeeds and is non-empty.
func PlanPages(number, offset int) []tumblr.PageRequest {
	if offset < 0 {
		offset = 0
	}
	var pages []tumblr.PageRequest
	for remaining := ClampNumber(number); remaining > 0; {
		limit := min(remaining, tumblr.MaxPageSize)
		pages = append(pages, tumblr.PageRequest{Limit: limit, Offset: offset})
		remaining -= limit
		offset += limit
	}
	return pages
}

// Scraper drives the pagination loop of one blog listing: it requests pages,
// routes each post by type and hands image URLs to the download pool.
type Scraper struct {
	cfg         RunConfig
	client      TumblrClient
	store       OutputStore
	pool        *downloader.Pool
	checkpoints CheckpointStore
	dump        io.Writer
	logger      logger.Logger
	state       State
}

// New creates a scraper for one run
func New(cfg RunConfig, client TumblrClient, store OutputStore, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithFields(map[string]interface{}{
		"blog":     cfg.Target.Blog,
		"endpoint": cfg.Target.Endpoint(),
	})

	return &Scraper{
		cfg:    cfg,
		client: client,
		store:  store,
		pool:   downloader.NewPool(cfg.Workers, client, store, log),
		logger: log,
		state:  StateIdle,
	}
}

// SetCheckpoints enables resume support backed by cs
func (s *Scraper) SetCheckpoints(cs CheckpointStore) {
	s.checkpoints = cs
}

// SetDumpWriter makes the scraper write the outline of every fetched page to w
func (s *Scraper) SetDumpWriter(w io.Writer) {
	s.dump = w
}

// State returns the current state of the loop
func (s *Scraper) State() State {
	return s.state
}

func (s *Scraper) setState(state State) {
	if s.state != state {
		s.logger.DebugWithFields("state change", map[string]interface{}{
			"from": s.state.String(),
			"to":   state.String(),
		})
	}
	s.state = state
}

func (s *Scraper) checkpointKey() string {
	return checkpoint.Key(s.cfg.Target.Blog, s.cfg.Target.Likes)
}

// Run executes the pagination loop until the requested number of posts has
// been covered, a page comes back empty, or a page request fails.
//
// Remote and network failures end the loop with StateFailed and a nil
// error. A malformed response body, a storage failure or cancellation of
// ctx is returned as an error. The summary is returned in every case.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{}
	defer func() {
		sum.FinalState = s.state
		sum.Duration = time.Since(start)
		logger.LogRunSummary(s.logger, sum.Fields())
	}()

	remaining := ClampNumber(s.cfg.Number)
	offset := max(s.cfg.Offset, 0)
	if s.cfg.Number > tumblr.MaxTotalPosts {
		s.logger.DebugWithFields("requested post count capped", map[string]interface{}{
			"requested": s.cfg.Number,
			"cap":       tumblr.MaxTotalPosts,
		})
	}

	if s.cfg.Resume {
		if cp := s.loadCheckpoint(); cp != nil {
			remaining = ClampNumber(cp.Remaining)
			offset = cp.NextOffset
			sum.Resumed = true
		}
	}

	s.logger.InfoWithFields("starting run", map[string]interface{}{
		"number":  remaining,
		"offset":  offset,
		"workers": s.cfg.Workers,
		"resumed": sum.Resumed,
	})

	for _, page := range PlanPages(remaining, offset) {
		if err := ctx.Err(); err != nil {
			sum.NextOffset, sum.Remaining = offset, remaining
			return sum, s.abort(sum, errors.NewAborted(err))
		}

		s.setState(StateRequesting)

		resp, err := s.client.FetchPage(ctx, s.cfg.Target, page)
		if err != nil {
			sum.NextOffset, sum.Remaining = offset, remaining
			return sum, s.fail(sum, err)
		}
		sum.Pages++

		if s.dump != nil {
			if err := jsontree.Dump(s.dump, resp); err != nil {
				s.logger.WithError(err).Warn("failed to dump response tree")
			}
		}

		posts := tumblr.PostsIn(resp, s.cfg.Target)
		logger.LogPage(s.logger, s.cfg.Target.Blog, page.Offset, page.Limit, remaining, len(posts))
		if len(posts) == 0 {
			s.logger.InfoWithFields("no posts in response", map[string]interface{}{
				"offset": page.Offset,
			})
			sum.StopReason = StopNoPosts
			break
		}

		s.setState(StateDispatching)
		if err := s.dispatch(ctx, posts, sum); err != nil {
			sum.NextOffset, sum.Remaining = offset, remaining
			return sum, s.fail(sum, err)
		}

		remaining -= page.Limit
		offset += page.Limit
		if remaining > 0 {
			s.saveCheckpoint(offset, remaining, sum.Pages)
		}
	}

	if sum.StopReason == "" {
		sum.StopReason = StopCompleted
	}
	sum.NextOffset, sum.Remaining = offset, remaining
	s.setState(StateDone)
	s.deleteCheckpoint()
	return sum, nil
}

// fail moves the loop to StateFailed and decides whether err ends the process
func (s *Scraper) fail(sum *Summary, err error) error {
	if errors.IsType(err, errors.ErrorTypeAborted) {
		return s.abort(sum, err)
	}

	s.setState(StateFailed)
	log := s.logger.WithError(err)

	switch {
	case errors.IsType(err, errors.ErrorTypeRemote):
		sum.StopReason = StopRemoteError
		log.ErrorWithFields("page request rejected, stopping", map[string]interface{}{
			"status": errors.StatusCode(err),
		})
		return nil
	case errors.IsType(err, errors.ErrorTypeNetwork):
		sum.StopReason = StopNetworkError
		log.Error("page request failed, stopping")
		return nil
	case errors.IsType(err, errors.ErrorTypeParse):
		sum.StopReason = StopParseError
	}

	log.Error("run failed")
	return err
}

func (s *Scraper) abort(sum *Summary, err error) error {
	s.setState(StateFailed)
	sum.StopReason = StopAborted
	s.logger.Warn("run interrupted")
	return err
}

// dispatch routes every post of one page. Posts are handled one after the
// other so the files of a post are written in traversal order.
func (s *Scraper) dispatch(ctx context.Context, posts []*jsontree.Value, sum *Summary) error {
	for i, raw := range posts {
		post, ok := tumblr.NewPost(raw)
		if !ok {
			sum.Skipped++
			s.logger.WarnWithFields("ignoring post record that is not an object", map[string]interface{}{
				"index": i,
				"kind":  raw.Kind().String(),
			})
			continue
		}
		sum.Posts++

		id, hasID := post.ID()
		var urls []string

		switch post.Type() {
		case tumblr.TypePhoto:
			sum.PhotoPosts++
			urls = tumblr.PhotoURLs(post.Photos())

		case tumblr.TypeText:
			if !hasID {
				sum.Skipped++
				s.logger.WarnWithFields("skipping text post without id", map[string]interface{}{"index": i})
				continue
			}
			sum.TextPosts++
			urls = s.saveText(id, post.Body())

		default:
			sum.Skipped++
			s.logger.DebugWithFields("ignoring post", map[string]interface{}{
				"id":   id,
				"type": post.Type(),
			})
			continue
		}

		if len(urls) == 0 {
			continue
		}

		jobs := make([]downloader.Job, len(urls))
		for j, u := range urls {
			jobs[j] = downloader.Job{URL: u, PostID: id}
		}

		results, err := s.pool.Run(ctx, jobs)
		for _, r := range results {
			switch {
			case r.Err != nil:
				if !errors.IsType(r.Err, errors.ErrorTypeAborted) {
					sum.ImagesFailed++
				}
			case r.Skipped:
				sum.ImagesDuplicate++
			default:
				sum.ImagesSaved++
				if r.Replaced {
					sum.ImagesReplaced++
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// saveText writes the text post wrapper and returns the image sources of its body
func (s *Scraper) saveText(id, body string) []string {
	path, err := s.store.SaveTextPost(id, body)
	if err != nil {
		s.logger.WithError(err).ErrorWithFields("failed to save text post", map[string]interface{}{"id": id})
	} else {
		s.logger.InfoWithFields("text post saved", map[string]interface{}{
			"id":   id,
			"path": path,
		})
	}

	return markup.ImageSources(body)
}

func (s *Scraper) loadCheckpoint() *checkpoint.Checkpoint {
	if s.checkpoints == nil {
		return nil
	}
	cp, err := s.checkpoints.Load(s.checkpointKey())
	if err != nil {
		s.logger.WithError(err).Warn("failed to load checkpoint, starting from the requested offset")
		return nil
	}
	if cp == nil {
		s.logger.Info("no checkpoint to resume from")
		return nil
	}
	return cp
}

func (s *Scraper) saveCheckpoint(offset, remaining, pages int) {
	if s.checkpoints == nil {
		return
	}
	cp := &checkpoint.Checkpoint{
		Blog:       s.cfg.Target.Blog,
		Likes:      s.cfg.Target.Likes,
		NextOffset: offset,
		Remaining:  remaining,
		Pages:      pages,
	}
	if err := s.checkpoints.Save(cp); err != nil {
		s.logger.WithError(err).Warn("failed to save checkpoint")
	}
}

func (s *Scraper) deleteCheckpoint() {
	if s.checkpoints == nil {
		return
	}
	if err := s.checkpoints.Delete(s.checkpointKey()); err != nil {
		s.logger.WithError(err).Warn("failed to delete checkpoint")
	}
}
