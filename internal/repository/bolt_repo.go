package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/editorial-cms/internal/models"
	bolt "go.etcd.io/bbolt"
)

var (
	bPosts = []byte("posts")
	bSlugs = []byte("slugs")
)

// boltRepo is the PostBackend for the embedded single-file store
type boltRepo struct {
	db *bolt.DB
}

// BoltOptions configures OpenBolt
type BoltOptions struct {
	Path    string // e.g. "./data/posts.db"
	Timeout time.Duration
}

// OpenBolt opens (or creates) the store file and its buckets
func OpenBolt(opt BoltOptions) (PostBackend, error) {
	if opt.Path == "" {
		return nil, errors.New("bolt: missing path")
	}
	if opt.Timeout <= 0 {
		opt.Timeout = time.Second
	}
	if err := os.MkdirAll(filepath.Dir(opt.Path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(opt.Path, 0o600, &bolt.Options{Timeout: opt.Timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bPosts, bSlugs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &boltRepo{db: db}, nil
}

func decodePost(v []byte) (*models.Post, error) {
	var post models.Post
	if err := json.Unmarshal(v, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// FetchAll returns every post, newest first
func (r *boltRepo) FetchAll(ctx context.Context) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bPosts).ForEach(func(k, v []byte) error {
			post, err := decodePost(v)
			if err != nil {
				return fmt.Errorf("decode post %s: %w", k, err)
			}
			posts = append(posts, post)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

// FetchBySlug resolves the slug index
func (r *boltRepo) FetchBySlug(ctx context.Context, slug string) (*models.Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}

	var post *models.Post
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bSlugs).Get([]byte(slug))
		if id == nil {
			return nil
		}
		v := tx.Bucket(bPosts).Get(id)
		if v == nil {
			return nil
		}
		p, err := decodePost(v)
		if err != nil {
			return err
		}
		post = p
		return nil
	})
	return post, err
}

// Insert stores a new post. Reusing an id is a conflict.
func (r *boltRepo) Insert(ctx context.Context, post *models.Post) (*models.Post, error) {
	err := r.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bPosts).Get([]byte(post.ID)) != nil {
			return fmt.Errorf("insert post %s: %w", post.ID, ErrConflict)
		}
		return putPost(tx, post)
	})
	if err != nil {
		return nil, err
	}
	return post.Clone(), nil
}

// UpdateByID replaces an existing post
func (r *boltRepo) UpdateByID(ctx context.Context, post *models.Post) (*models.Post, error) {
	err := r.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bPosts).Get([]byte(post.ID)) == nil {
			return fmt.Errorf("update post %s: %w", post.ID, ErrNotFound)
		}
		return putPost(tx, post)
	})
	if err != nil {
		return nil, err
	}
	return post.Clone(), nil
}

// BulkUpsert writes all posts in a single transaction
func (r *boltRepo) BulkUpsert(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		for _, post := range posts {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := putPost(tx, post); err != nil {
				return err
			}
		}
		return nil
	})
}

// putPost writes the record and keeps the slug index pointing at it
func putPost(tx *bolt.Tx, post *models.Post) error {
	postsB := tx.Bucket(bPosts)
	slugsB := tx.Bucket(bSlugs)
	id := []byte(post.ID)

	if prev := postsB.Get(id); prev != nil {
		old, err := decodePost(prev)
		if err == nil && old.Slug != post.Slug && string(slugsB.Get([]byte(old.Slug))) == post.ID {
			if err := slugsB.Delete([]byte(old.Slug)); err != nil {
				return err
			}
		}
	}

	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("encode post %s: %w", post.ID, err)
	}
	if err := postsB.Put(id, data); err != nil {
		return err
	}
	if post.Slug != "" {
		return slugsB.Put([]byte(post.Slug), id)
	}
	return nil
}

// Close closes the store file
func (r *boltRepo) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
