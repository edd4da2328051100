package jsontree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsOrderAndKinds(t *testing.T) {
	v, err := Parse([]byte(`{"z":1,"a":"two","m":[true,null,1.5],"n":{"k":false}}`))
	require.NoError(t, err)
	require.Equal(t, Object, v.Kind())

	var keys []string
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"z", "a", "m", "n"}, keys)

	z, _ := v.Get("z")
	i, ok := z.Int()
	assert.True(t, ok)
	assert.Equal(t, int64(1), i)

	m, _ := v.Get("m")
	require.Len(t, m.Items(), 3)
	assert.Equal(t, Bool, m.Items()[0].Kind())
	assert.Equal(t, Null, m.Items()[1].Kind())
	assert.Equal(t, Float, m.Items()[2].Kind())
	assert.Equal(t, "1.5", m.Items()[2].Scalar())
	assert.Equal(t, "true", m.Items()[0].Scalar())
}

func TestParseLargePostID(t *testing.T) {
	v, err := Parse([]byte(`{"id":731864172394184704}`))
	require.NoError(t, err)

	id, _ := v.Get("id")
	assert.Equal(t, "731864172394184704", id.Scalar())
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"response": [`))
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	posts := NewArray(NewObject(M("id", NewInt(1))))

	tests := []struct {
		name  string
		root  *Value
		key   string
		want  *Value
		found bool
	}{
		{
			name:  "top level",
			root:  NewObject(M("posts", posts)),
			key:   "posts",
			want:  posts,
			found: true,
		},
		{
			name: "nested under envelope",
			root: NewObject(
				M("meta", NewObject(M("status", NewInt(200)))),
				M("response", NewObject(M("blog", NewObject(M("name", NewString("x")))), M("posts", posts))),
			),
			key:   "posts",
			want:  posts,
			found: true,
		},
		{
			name: "inside array elements",
			root: NewArray(
				NewObject(M("a", NewInt(1))),
				NewObject(M("b", NewObject(M("liked_posts", posts)))),
			),
			key:   "liked_posts",
			want:  posts,
			found: true,
		},
		{
			name: "scalar match ends its object",
			root: NewObject(
				M("posts", NewInt(20)),
				M("response", NewObject(M("posts", posts))),
			),
			key:   "posts",
			found: false,
		},
		{
			name: "scalar match resumes in parent",
			root: NewObject(
				M("response", NewObject(
					M("blog", NewObject(
						M("posts", NewInt(3)),
						M("extra", NewObject(M("posts", NewArray(NewString("decoy"))))),
					)),
					M("posts", posts),
				)),
			),
			key:   "posts",
			want:  posts,
			found: true,
		},
		{
			name: "scalar match inside array element",
			root: NewArray(
				NewObject(M("posts", NewString("none")), M("more", NewObject(M("posts", NewArray())))),
				NewObject(M("posts", posts)),
			),
			key:   "posts",
			want:  posts,
			found: true,
		},
		{
			name:  "missing",
			root:  NewObject(M("response", NewObject(M("blog", NewObject())))),
			key:   "posts",
			found: false,
		},
		{
			name:  "scalar root",
			root:  NewString("posts"),
			key:   "posts",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Search(tt.root, tt.key)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Same(t, tt.want, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestSearchPreOrder(t *testing.T) {
	first := NewArray(NewString("first"))
	second := NewArray(NewString("second"))

	// the earlier sibling's subtree is searched before the later direct match
	root := NewObject(
		M("a", NewObject(M("posts", first))),
		M("posts", second),
	)

	got, ok := Search(root, "posts")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestCollectSkipsAltSizes(t *testing.T) {
	photo := func(name string) *Value {
		return NewObject(
			M("caption", NewString("")),
			M("alt_sizes", NewArray(
				NewObject(M("url", NewString("https://x/"+name+"_500.jpg"))),
				NewObject(M("url", NewString("https://x/"+name+"_250.jpg"))),
			)),
			M("original_size", NewObject(
				M("url", NewString("https://x/"+name+"_1280.jpg")),
				M("width", NewInt(1280)),
			)),
		)
	}

	photos := NewArray(photo("a"), photo("b"))
	got := Collect(photos, "url", "alt_sizes")
	assert.Equal(t, []string{"https://x/a_1280.jpg", "https://x/b_1280.jpg"}, got)
}

func TestCollectSkipsAltSizesAtAnyDepth(t *testing.T) {
	var nested *Value = NewObject(M("url", NewString("https://x/deep_alt.jpg")))
	for i := 0; i < 10; i++ {
		nested = NewObject(M("wrap", nested))
	}

	root := NewObject(
		M("url", NewString("https://x/outer.jpg")),
		M("level1", NewObject(
			M("level2", NewObject(
				M("alt_sizes", nested),
				M("url", NewString("https://x/inner.jpg")),
			)),
		)),
	)

	got := Collect(root, "url", "alt_sizes")
	assert.Equal(t, []string{"https://x/outer.jpg", "https://x/inner.jpg"}, got)
	for _, u := range got {
		assert.NotContains(t, u, "alt")
	}
}

func TestWalkDeepNesting(t *testing.T) {
	v := NewObject(M("posts", NewArray()))
	for i := 0; i < 100000; i++ {
		v = NewArray(v)
	}

	got, ok := Search(v, "posts")
	assert.True(t, ok)
	assert.Equal(t, Array, got.Kind())
}

func TestDump(t *testing.T) {
	v, err := Parse([]byte(`{"meta":{"status":200},"response":{"posts":[{"id":1,"type":"text","x":null},{"id":2}]}}`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, v))

	want := strings.Join([]string{
		"meta",
		"  status",
		"    200",
		"response",
		"  posts",
		"    id",
		"      1",
		"    type",
		"      text",
		"    x",
		"    id",
		"      2",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}
