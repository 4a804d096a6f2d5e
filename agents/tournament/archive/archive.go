/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package archive stores finished tournaments as JSON or YAML documents on
// the local filesystem or in Google Cloud Storage (gs://bucket/object).
// Only the final BatchResult is ever written.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/chainguard-dev/clog"
	"github.com/mike-khor/llm-tournament-widget/agents/tournament"
	"gopkg.in/yaml.v3"
)

// Format is an archive encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatFor picks the encoding from a destination's extension; anything
// other than .yaml or .yml is JSON.
func FormatFor(dest string) Format {
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Encode writes a batch in the given format.
func Encode(w io.Writer, batch *tournament.BatchResult, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(batch)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(batch); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown archive format %q", f)
	}
}

// Decode reads a batch in the given format.
func Decode(r io.Reader, f Format) (*tournament.BatchResult, error) {
	var batch tournament.BatchResult
	var err error
	switch f {
	case JSON:
		err = json.NewDecoder(r).Decode(&batch)
	case YAML:
		err = yaml.NewDecoder(r).Decode(&batch)
	default:
		err = fmt.Errorf("unknown archive format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// Archive saves and loads batches. The storage client is created on first
// use of a gs:// location.
type Archive struct {
	mu     sync.Mutex
	client *storage.Client
}

// Option configures an Archive.
type Option func(*Archive) error

// WithStorageClient supplies the client used for gs:// locations.
func WithStorageClient(c *storage.Client) Option {
	return func(a *Archive) error {
		if c == nil {
			return errors.New("storage client cannot be nil")
		}
		a.client = c
		return nil
	}
}

// New creates an Archive.
func New(opts ...Option) (*Archive, error) {
	a := &Archive{}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return a, nil
}

// Save writes the batch to dest, a file path or gs:// URL.
func (a *Archive) Save(ctx context.Context, dest string, batch *tournament.BatchResult) error {
	var buf bytes.Buffer
	if err := Encode(&buf, batch, FormatFor(dest)); err != nil {
		return fmt.Errorf("encoding batch %s: %w", batch.ID, err)
	}

	if bucket, object, ok := parseGCS(dest); ok {
		if err := a.writeGCS(ctx, bucket, object, buf.Bytes()); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating archive directory: %w", err)
		}
		if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing archive: %w", err)
		}
	}

	clog.FromContext(ctx).With("batch_id", batch.ID).
		With("destination", dest).
		With("bytes", buf.Len()).
		Info("Archived tournament")
	return nil
}

// Load reads a batch from src, a file path or gs:// URL.
func (a *Archive) Load(ctx context.Context, src string) (*tournament.BatchResult, error) {
	var r io.ReadCloser
	if bucket, object, ok := parseGCS(src); ok {
		client, err := a.storageClient(ctx)
		if err != nil {
			return nil, err
		}
		if r, err = client.Bucket(bucket).Object(object).NewReader(ctx); err != nil {
			return nil, fmt.Errorf("opening gs://%s/%s: %w", bucket, object, err)
		}
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		r = f
	}
	defer r.Close()

	batch, err := Decode(r, FormatFor(src))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", src, err)
	}
	return batch, nil
}

func (a *Archive) writeGCS(ctx context.Context, bucket, object string, data []byte) error {
	client, err := a.storageClient(ctx)
	if err != nil {
		return err
	}
	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	if FormatFor(object) == YAML {
		w.ContentType = "application/yaml"
	} else {
		w.ContentType = "application/json"
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

func (a *Archive) storageClient(ctx context.Context) (*storage.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		c, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating storage client: %w", err)
		}
		a.client = c
	}
	return a.client, nil
}

// Close releases the storage client if one was created.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

// parseGCS splits gs://bucket/object. Both parts must be present.
func parseGCS(loc string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(loc, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}
