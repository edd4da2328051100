// Package tumblr provides a client for the Tumblr v2 blog listing API.
//
// This package includes:
//   - Client.FetchPage, one page of a blog's posts or likes parsed into a jsontree.Value
//   - Client.Download, a single GET returning an image body
//   - Post, a read-only view over one post record
//   - helpers for blog name normalization and page URL construction
//
// Example usage:
//
//	client := tumblr.NewClient(apiKey, tumblr.Options{Timeout: 30 * time.Second}, log)
//	target := tumblr.Target{Blog: "staff"}
//
//	resp, err := client.FetchPage(ctx, target, tumblr.PageRequest{Limit: 50})
//	if err != nil {
//	    if errors.IsType(err, errors.ErrorTypeRemote) {
//	        // status code and reason are on the error
//	    }
//	}
//
//	for _, raw := range tumblr.PostsIn(resp, target) {
//	    post, _ := tumblr.NewPost(raw)
//	    if post.Type() == tumblr.TypePhoto {
//	        urls := tumblr.PhotoURLs(post.Photos())
//	        // download each url
//	    }
//	}
package tumblr
