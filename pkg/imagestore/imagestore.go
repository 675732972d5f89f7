// Package imagestore uploads product photos to the image host.
package imagestore

import (
	"context"
	"errors"
	"io"
	"shop-service/pkg/config"
	"sync"
)

// ErrNotConfigured is returned when no image host credentials were provided.
var ErrNotConfigured = errors.New("image store is not configured")

// Image is a hosted image: the public URL and the id used to delete it.
type Image struct {
	URL      string
	PublicID string
}

// Store uploads and removes hosted images.
type Store interface {
	Upload(ctx context.Context, file io.Reader, filename string) (*Image, error)
	Delete(ctx context.Context, publicID string) error
}

var (
	mu      sync.RWMutex
	current Store = disabled{}
)

// Initialize selects the Cloudinary store when credentials are present.
func Initialize(cfg *config.CloudinaryConfig) error {
	if !cfg.Enabled() {
		Set(disabled{})
		return nil
	}
	store, err := NewCloudinary(cfg)
	if err != nil {
		return err
	}
	Set(store)
	return nil
}

// Set replaces the active store.
func Set(s Store) {
	mu.Lock()
	defer mu.Unlock()
	current = s
}

// Get returns the active store.
func Get() Store {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

type disabled struct{}

func (disabled) Upload(context.Context, io.Reader, string) (*Image, error) {
	return nil, ErrNotConfigured
}

func (disabled) Delete(context.Context, string) error {
	return ErrNotConfigured
}
