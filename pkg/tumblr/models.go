package tumblr

import (
	"strconv"

	"tumbledee/pkg/jsontree"
)

// Post type tags with dedicated handling
const (
	TypePhoto = "photo"
	TypeText  = "text"
)

// Post is a read-only view over one post record of a response
type Post struct {
	raw *jsontree.Value
}

// NewPost wraps an object-shaped post record. ok is false for anything else.
func NewPost(v *jsontree.Value) (Post, bool) {
	if v.Kind() != jsontree.Object {
		return Post{}, false
	}
	return Post{raw: v}, true
}

// ID returns the post id rendered as text, and false when absent or not a scalar
func (p Post) ID() (string, bool) {
	v, ok := p.raw.Get("id")
	if !ok {
		return "", false
	}
	switch v.Kind() {
	case jsontree.Integer:
		i, _ := v.Int()
		return strconv.FormatInt(i, 10), true
	case jsontree.String:
		s, _ := v.Str()
		return s, s != ""
	default:
		return "", false
	}
}

// Type returns the post's type tag, or "" when absent
func (p Post) Type() string {
	v, _ := p.raw.Get("type")
	s, _ := v.Str()
	return s
}

// Photos returns the photos field of a photo post
func (p Post) Photos() *jsontree.Value {
	v, _ := p.raw.Get("photos")
	return v
}

// Body returns the HTML body of a text post
func (p Post) Body() string {
	v, _ := p.raw.Get("body")
	s, _ := v.Str()
	return s
}

// PhotoURLs returns the original-size image URLs of a photos array in
// traversal order. Nothing reached through an alt_sizes key is returned.
func PhotoURLs(photos *jsontree.Value) []string {
	return jsontree.Collect(photos, "url", "alt_sizes")
}

// PostsIn locates the post array of a response for the given listing.
// It returns nil when the key is missing or holds no array.
func PostsIn(resp *jsontree.Value, t Target) []*jsontree.Value {
	v, ok := jsontree.Search(resp, t.PostsKey())
	if !ok {
		return nil
	}
	return v.Items()
}
