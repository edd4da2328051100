// Package scraper drives the download of one Tumblr blog listing.
//
// A run walks the listing page by page. Each page asks for at most 50 posts
// and a run never asks for more than 500 in total:
//
//	Idle -> Requesting -> Dispatching -> Requesting | Done | Failed
//
// Posts are routed by their type tag. Photo posts yield the original-size
// URL of each photo; alt_sizes renditions are never fetched. Text posts are
// written to {id}.html and the images referenced by their body are fetched
// afterwards. Every other post type is ignored.
//
// A page that comes back empty ends the run as Done. A page request that is
// rejected by the API, or never answered, ends it as Failed without making
// the run itself an error. Image failures are logged and skipped.
//
// Usage:
//
//	client := tumblr.NewClient(creds.APIKey, tumblr.Options{}, log)
//	store, err := storage.NewManager("staff")
//	if err != nil {
//	    return err
//	}
//
//	s := scraper.New(scraper.RunConfig{
//	    Target: tumblr.Target{Blog: "staff.tumblr.com"},
//	    Number: 120,
//	}, client, store, log)
//
//	summary, err := s.Run(ctx)
//
// When a CheckpointStore is set, the position after every completed page is
// saved so that a later run with Resume can pick up where this one stopped.
package scraper
