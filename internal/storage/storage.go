package storage

import (
	"context"
	"io"
)

// Client is the object store the enrichment cache is mirrored to.
type Client interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Fetch(ctx context.Context, key string, w io.Writer) error
	List(ctx context.Context, prefix string) ([]string, error)
}

var defaultClient Client

// SetDefaultClient sets the process wide mirror client.
func SetDefaultClient(c Client) {
	defaultClient = c
}

// DefaultClient returns the mirror client, nil until one is configured.
func DefaultClient() Client {
	return defaultClient
}
