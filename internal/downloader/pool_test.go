package downloader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tumbledee/pkg/errors"
	"tumbledee/pkg/logger"
	"tumbledee/pkg/storage"
)

// MockClient stands in for the Tumblr client
type MockClient struct {
	delay    time.Duration
	failURLs map[string]int

	mu       sync.Mutex
	requests map[string]int
	inFlight int32
	maxSeen  int32
}

func NewMockClient() *MockClient {
	return &MockClient{requests: make(map[string]int), failURLs: make(map[string]int)}
}

func (m *MockClient) Download(ctx context.Context, url string) ([]byte, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		cur := atomic.LoadInt32(&m.maxSeen)
		if n <= cur || atomic.CompareAndSwapInt32(&m.maxSeen, cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.requests[url]++
	code, fail := m.failURLs[url]
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, errors.NewAborted(ctx.Err())
		}
	}
	if fail {
		return nil, errors.NewDownloadError(url, code, "Not Found", nil)
	}
	return []byte("data:" + url), nil
}

func (m *MockClient) Requests(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[url]
}

// MockStore records saved files in memory
type MockStore struct {
	mu     sync.Mutex
	files  map[string]string
	writes map[string]int
	order  []string
	err    error
}

func NewMockStore() *MockStore {
	return &MockStore{files: make(map[string]string), writes: make(map[string]int)}
}

func (m *MockStore) Overwrites(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return max(m.writes[name]-1, 0)
}

func (m *MockStore) SaveFile(r io.Reader, name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = string(data)
	m.writes[name]++
	m.order = append(m.order, name)
	return "/out/" + name, nil
}

func jobsFor(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{URL: fmt.Sprintf("https://x/img/photo%d.jpg", i), PostID: "1"}
	}
	return jobs
}

func TestPoolSequentialOrder(t *testing.T) {
	client := NewMockClient()
	store := NewMockStore()
	pool := NewPool(1, client, store, logger.NewNopLogger())

	results, err := pool.Run(context.Background(), jobsFor(5))
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("photo%d.jpg", i), r.File)
		assert.Equal(t, "/out/"+r.File, r.Path)
	}
	assert.Equal(t, []string{"photo0.jpg", "photo1.jpg", "photo2.jpg", "photo3.jpg", "photo4.jpg"}, store.order)
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.maxSeen))
}

func TestPoolConcurrentKeepsResultOrder(t *testing.T) {
	client := NewMockClient()
	client.delay = 30 * time.Millisecond
	pool := NewPool(4, client, NewMockStore(), logger.NewNopLogger())

	start := time.Now()
	results, err := pool.Run(context.Background(), jobsFor(8))
	elapsed := time.Since(start)
	require.NoError(t, err)

	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("photo%d.jpg", i), r.File)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&client.maxSeen), int32(4))
	assert.Less(t, elapsed, 8*client.delay)
}

func TestPoolFailuresDoNotStopBatch(t *testing.T) {
	client := NewMockClient()
	client.failURLs["https://x/img/photo1.jpg"] = 404
	log := logger.NewTestLogger()
	pool := NewPool(1, client, NewMockStore(), log)

	results, err := pool.Run(context.Background(), jobsFor(3))
	require.NoError(t, err)

	assert.NoError(t, results[0].Err)
	assert.True(t, errors.IsType(results[1].Err, errors.ErrorTypeDownload))
	assert.Equal(t, 404, errors.StatusCode(results[1].Err))
	assert.NoError(t, results[2].Err)

	assert.Len(t, log.GetMessagesByLevel("ERROR"), 1)
	assert.Len(t, log.GetMessagesByLevel("INFO"), 2)
}

func TestPoolDeduplicatesURLs(t *testing.T) {
	client := NewMockClient()
	pool := NewPool(3, client, NewMockStore(), logger.NewNopLogger())

	jobs := []Job{
		{URL: "https://x/a.png", PostID: "1"},
		{URL: "https://x/a.png", PostID: "1"},
		{URL: "https://x/b.png", PostID: "2"},
	}
	results, err := pool.Run(context.Background(), jobs)
	require.NoError(t, err)

	assert.False(t, results[0].Skipped)
	assert.True(t, results[1].Skipped)
	assert.False(t, results[2].Skipped)

	again, err := pool.Run(context.Background(), jobs[:1])
	require.NoError(t, err)
	assert.True(t, again[0].Skipped)
	assert.Equal(t, 1, client.Requests("https://x/a.png"))
}

func TestPoolBadFileName(t *testing.T) {
	client := NewMockClient()
	pool := NewPool(1, client, NewMockStore(), logger.NewNopLogger())

	results, err := pool.Run(context.Background(), []Job{{URL: "https://x/dir/"}})
	require.NoError(t, err)

	assert.True(t, errors.IsType(results[0].Err, errors.ErrorTypeDownload))
	assert.Equal(t, 0, client.Requests("https://x/dir/"))
}

func TestPoolStorageError(t *testing.T) {
	store := NewMockStore()
	store.err = errors.NewStorageError("disk full", nil)
	pool := NewPool(1, NewMockClient(), store, logger.NewNopLogger())

	results, err := pool.Run(context.Background(), jobsFor(2))
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, errors.IsType(r.Err, errors.ErrorTypeStorage))
	}
}

func TestPoolCancelled(t *testing.T) {
	client := NewMockClient()
	client.delay = time.Second
	pool := NewPool(1, client, NewMockStore(), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	results, err := pool.Run(ctx, jobsFor(4))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAborted))
	require.Len(t, results, 4)
	assert.True(t, errors.IsType(results[3].Err, errors.ErrorTypeAborted))
}

func TestPoolSameFileNameConcurrently(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	client := NewMockClient()
	client.delay = time.Millisecond
	pool := NewPool(4, client, store, logger.NewNopLogger())

	for round := 0; round < 25; round++ {
		a := fmt.Sprintf("https://host-a/%d/img.jpg", round)
		b := fmt.Sprintf("https://host-b/%d/img.jpg", round)

		results, err := pool.Run(context.Background(), []Job{{URL: a, PostID: "1"}, {URL: b, PostID: "1"}})
		require.NoError(t, err)
		for _, r := range results {
			require.NoError(t, r.Err, "round %d", round)
			assert.Equal(t, filepath.Join(dir, "img.jpg"), r.Path)
		}

		data, err := os.ReadFile(filepath.Join(dir, "img.jpg"))
		require.NoError(t, err)
		assert.Contains(t, []string{"data:" + a, "data:" + b}, string(data))
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	assert.Empty(t, leftovers)
	assert.Equal(t, 1, store.GetSavedCount())
}

func TestPoolReportsReplacedFile(t *testing.T) {
	store := NewMockStore()
	log := logger.NewTestLogger()
	pool := NewPool(1, NewMockClient(), store, log)

	results, err := pool.Run(context.Background(), []Job{
		{URL: "https://host-a/x/img.jpg", PostID: "1"},
		{URL: "https://host-b/y/img.jpg", PostID: "2"},
	})
	require.NoError(t, err)

	assert.False(t, results[0].Replaced)
	assert.True(t, results[1].Replaced)
	assert.Equal(t, "data:https://host-b/y/img.jpg", store.files["img.jpg"])

	warns := log.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "https://host-b/y/img.jpg", warns[0].Fields["url"])
}
