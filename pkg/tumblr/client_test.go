package tumblr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tumbledee/pkg/errors"
	"tumbledee/pkg/jsontree"
	"tumbledee/pkg/logger"
)

const samplePage = `{
  "meta": {"status": 200, "msg": "OK"},
  "response": {
    "blog": {"name": "staff", "posts": 2},
    "posts": [
      {"id": 42, "type": "text", "body": "<p>hi<img src=\"https://x/a.png\"></p>"},
      {"id": 43, "type": "photo", "photos": [
        {"caption": "", "alt_sizes": [{"url": "https://x/b_500.jpg"}], "original_size": {"url": "https://x/b_1280.jpg"}}
      ]}
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *logger.TestLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.NewTestLogger()
	return NewClient("k3y", Options{BaseURL: srv.URL, Timeout: 5 * time.Second}, log), log
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("k", Options{}, logger.NewNopLogger())

	assert.Equal(t, BaseURL, c.baseURL)
	assert.Equal(t, DefaultDomain, c.domain)
	assert.NotNil(t, c.limiter)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.Equal(t, "staff.tumblr.com", c.Blog("staff"))
}

func TestFetchPage(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePage))
	})

	target := Target{Blog: "staff"}
	resp, err := client.FetchPage(context.Background(), target, PageRequest{Limit: 2, Offset: 50})
	require.NoError(t, err)

	assert.Equal(t, "/v2/blog/staff.tumblr.com/posts", gotPath)
	assert.Contains(t, gotQuery, "offset=50")
	assert.Contains(t, gotQuery, "api_key=k3y")

	posts := PostsIn(resp, target)
	require.Len(t, posts, 2)

	text, ok := NewPost(posts[0])
	require.True(t, ok)
	id, ok := text.ID()
	assert.True(t, ok)
	assert.Equal(t, "42", id)
	assert.Equal(t, TypeText, text.Type())
	assert.Equal(t, `<p>hi<img src="https://x/a.png"></p>`, text.Body())

	photo, _ := NewPost(posts[1])
	assert.Equal(t, []string{"https://x/b_1280.jpg"}, PhotoURLs(photo.Photos()))
}

func TestFetchPageLikes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/blog/staff.tumblr.com/likes", r.URL.Path)
		_, _ = w.Write([]byte(`{"response":{"liked_posts":[{"id":"7","type":"quote"}],"liked_count":1}}`))
	})

	target := Target{Blog: "staff.tumblr.com", Likes: true}
	resp, err := client.FetchPage(context.Background(), target, PageRequest{Limit: 1})
	require.NoError(t, err)

	posts := PostsIn(resp, target)
	require.Len(t, posts, 1)
	post, _ := NewPost(posts[0])
	id, _ := post.ID()
	assert.Equal(t, "7", id)
}

func TestFetchPageRemoteError(t *testing.T) {
	client, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"meta":{"status":404,"msg":"Not Found"}}`))
	})

	_, err := client.FetchPage(context.Background(), Target{Blog: "missing"}, PageRequest{Limit: 5})
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrorTypeRemote))
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
	assert.Contains(t, err.Error(), "Not Found")
	assert.NotContains(t, err.Error(), "k3y")
	assert.False(t, errors.IsFatal(err))
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
}

func TestFetchPageMalformedJSON(t *testing.T) {
	client, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response": {"posts": [`))
	})

	_, err := client.FetchPage(context.Background(), Target{Blog: "staff"}, PageRequest{Limit: 5})
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
	assert.True(t, errors.IsFatal(err))
	assert.True(t, log.HasMessage("failed to parse JSON response"))
}

func TestFetchPageNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient("k", Options{BaseURL: base, Timeout: time.Second}, logger.NewNopLogger())
	_, err := client.FetchPage(context.Background(), Target{Blog: "staff"}, PageRequest{Limit: 5})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
}

func TestFetchPageCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchPage(ctx, Target{Blog: "staff"}, PageRequest{Limit: 5})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAborted))
}

func TestDownloadSingleRequest(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("PNGDATA"))
	})

	data, err := client.Download(context.Background(), client.baseURL+"/img/a.png")
	require.NoError(t, err)

	assert.Equal(t, []byte("PNGDATA"), data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestDownloadErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Download(context.Background(), client.baseURL+"/img/a.png")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDownload))
	assert.Equal(t, http.StatusForbidden, errors.StatusCode(err))
	assert.False(t, errors.IsFatal(err))

	_, err = client.Download(context.Background(), "http://127.0.0.1:1/none.png")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDownload))
	assert.Equal(t, 0, errors.StatusCode(err))
}

func TestPostView(t *testing.T) {
	_, ok := NewPost(jsontree.NewString("not a post"))
	assert.False(t, ok)

	post, ok := NewPost(jsontree.NewObject(
		jsontree.M("id", jsontree.NewObject()),
		jsontree.M("type", jsontree.NewInt(3)),
	))
	require.True(t, ok)

	_, hasID := post.ID()
	assert.False(t, hasID)
	assert.Equal(t, "", post.Type())
	assert.Equal(t, "", post.Body())
	assert.Nil(t, post.Photos())
}

func TestPostsInMissing(t *testing.T) {
	resp := jsontree.NewObject(jsontree.M("response", jsontree.NewObject(
		jsontree.M("posts", jsontree.NewInt(0)),
	)))
	assert.Nil(t, PostsIn(resp, Target{Blog: "staff"}))
}
