package tumblr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL of the Tumblr v2 API
	BaseURL = "https://api.tumblr.com"

	// DefaultDomain is appended to blog names given without a domain
	DefaultDomain = ".tumblr.com"

	// MaxPageSize is the largest limit the API accepts for one page
	MaxPageSize = 50

	// MaxTotalPosts caps the number of posts a single run may request
	MaxTotalPosts = 500
)

// Target names the blog and listing a run reads from
type Target struct {
	Blog  string
	Likes bool
}

// Endpoint returns the listing path segment, "posts" or "likes"
func (t Target) Endpoint() string {
	if t.Likes {
		return "likes"
	}
	return "posts"
}

// PostsKey returns the response key holding the post array for this listing
func (t Target) PostsKey() string {
	if t.Likes {
		return "liked_posts"
	}
	return "posts"
}

// PageRequest is the window of one API call
type PageRequest struct {
	Limit  int
	Offset int
}

// NormalizeBlogName appends domain to a blog name that has no dot in it
func NormalizeBlogName(name, domain string) string {
	name = strings.TrimSpace(name)
	if strings.Contains(name, ".") {
		return name
	}
	if domain == "" {
		domain = DefaultDomain
	}
	return name + domain
}

// DirName returns the blog identifier up to its first dot
func DirName(blog string) string {
	if i := strings.IndexByte(blog, '.'); i >= 0 {
		return blog[:i]
	}
	return blog
}

// PageURL builds the listing URL for one page. offset is only sent when positive.
func PageURL(baseURL, blog, endpoint, apiKey string, p PageRequest) string {
	params := url.Values{}
	params.Set("api_key", apiKey)
	params.Set("limit", strconv.Itoa(p.Limit))
	params.Set("reblog_info", "true")
	if p.Offset > 0 {
		params.Set("offset", strconv.Itoa(p.Offset))
	}

	return fmt.Sprintf("%s/v2/blog/%s/%s?%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(blog), endpoint, params.Encode())
}
