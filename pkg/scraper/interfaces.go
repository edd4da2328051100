package scraper

import (
	"context"

	"tumbledee/internal/downloader"
	"tumbledee/pkg/checkpoint"
	"tumbledee/pkg/jsontree"
	"tumbledee/pkg/tumblr"
)

// TumblrClient defines the API operations the scraper needs
type TumblrClient interface {
	FetchPage(ctx context.Context, t tumblr.Target, p tumblr.PageRequest) (*jsontree.Value, error)
	downloader.ImageFetcher
}

// OutputStore writes images and text posts into the output directory
type OutputStore interface {
	downloader.FileStore
	SaveTextPost(id, body string) (string, error)
}

// CheckpointStore persists the pagination position between runs
type CheckpointStore interface {
	Load(key string) (*checkpoint.Checkpoint, error)
	Save(cp *checkpoint.Checkpoint) error
	Delete(key string) error
}
