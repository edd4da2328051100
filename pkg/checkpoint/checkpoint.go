package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"tumbledee/pkg/logger"
)

var bucketName = []byte("checkpoints")

const currentVersion = 1

// Checkpoint is the pagination position of an unfinished run
type Checkpoint struct {
	Blog       string    `json:"blog"`
	Likes      bool      `json:"likes"`
	NextOffset int       `json:"next_offset"`
	Remaining  int       `json:"remaining"`
	Pages      int       `json:"pages"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int       `json:"version"`
}

// Key identifies the checkpoint of one blog listing
func Key(blog string, likes bool) string {
	if likes {
		return blog + "/likes"
	}
	return blog + "/posts"
}

// Key returns the storage key of c
func (c *Checkpoint) Key() string {
	return Key(c.Blog, c.Likes)
}

// Manager stores checkpoints in a bbolt database
type Manager struct {
	db     *bbolt.DB
	path   string
	logger logger.Logger
}

// Open opens or creates the checkpoint database at path
func Open(path string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize checkpoint database: %w", err)
	}

	return &Manager{db: db, path: path, logger: log}, nil
}

// Close releases the database
func (m *Manager) Close() error {
	return m.db.Close()
}

// Load returns the checkpoint stored under key, or nil when there is none
func (m *Manager) Load(key string) (*Checkpoint, error) {
	var cp *Checkpoint
	err := m.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(key))
		if data == nil {
			return nil
		}
		cp = &Checkpoint{}
		return json.Unmarshal(data, cp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	if cp != nil {
		m.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
			"key":         key,
			"next_offset": cp.NextOffset,
			"remaining":   cp.Remaining,
			"updated_at":  cp.UpdatedAt,
		})
	}
	return cp, nil
}

// Save stores cp under its key, replacing any previous one
func (m *Manager) Save(cp *Checkpoint) error {
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	cp.Version = currentVersion

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	err = m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(cp.Key()), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	m.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"key":         cp.Key(),
		"next_offset": cp.NextOffset,
		"remaining":   cp.Remaining,
	})
	return nil
}

// Delete removes the checkpoint stored under key. Deleting a missing key is not an error.
func (m *Manager) Delete(key string) error {
	err := m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.DebugWithFields("checkpoint deleted", map[string]interface{}{"key": key})
	return nil
}

// List returns every stored checkpoint
func (m *Manager) List() ([]*Checkpoint, error) {
	var out []*Checkpoint
	err := m.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(_, v []byte) error {
			cp := &Checkpoint{}
			if err := json.Unmarshal(v, cp); err != nil {
				return err
			}
			out = append(out, cp)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return out, nil
}
