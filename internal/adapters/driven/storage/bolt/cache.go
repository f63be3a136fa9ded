// Package bolt persists chunk embeddings in a bbolt file so unchanged
// chunks are not re-embedded on the next build.
package bolt

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultFileName is the cache file created inside the scratch directory.
const DefaultFileName = "embeddings.db"

// OpenTimeout bounds waiting for another process holding the file lock.
const OpenTimeout = time.Second

var bucketEmbeddings = []byte("embeddings")

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache stores vectors keyed by a hash of model name and text.
type EmbeddingCache struct {
	db   *bbolt.DB
	path string
}

// NewEmbeddingCache opens or creates the cache file at path.
func NewEmbeddingCache(path string) (*EmbeddingCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}

	return &EmbeddingCache{db: db, path: path}, nil
}

// NewEmbeddingCacheInDir opens the cache file inside dir.
func NewEmbeddingCacheInDir(dir string) (*EmbeddingCache, error) {
	return NewEmbeddingCache(filepath.Join(dir, DefaultFileName))
}

// Path returns the cache file path.
func (c *EmbeddingCache) Path() string {
	return c.path
}

// Get returns the cached vector for model and text.
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var vec []float32
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get(cacheKey(model, text))
		if data == nil {
			return nil
		}
		decoded, err := decodeVector(data)
		if err != nil {
			return err
		}
		vec = decoded
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read embedding: %w", err)
	}
	return vec, vec != nil, nil
}

// Put stores a vector for model and text, replacing any previous value.
func (c *EmbeddingCache) Put(ctx context.Context, model, text string, vector []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(vector) == 0 {
		return nil
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put(cacheKey(model, text), encodeVector(vector))
	})
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	n := 0
	_ = c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n
}

// Close closes the cache file.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

// cacheKey hashes model and text; the NUL separator keeps ("ab","c") and ("a","bc") apart.
func cacheKey(model, text string) []byte {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector of %d bytes", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}
