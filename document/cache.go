package document

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lw64/graphdoc/hash"
	"github.com/lw64/graphdoc/operation"
)

// Cache memoizes Document materialisation keyed by the digest of an
// operation set (spec expansion §4.8), not by any single operation id.
// Because Builder.Build is a pure function of its input set (spec §5),
// presenting the same set in any order always hashes to the same key and
// therefore always hits on the second and subsequent calls.
type Cache struct {
	lru *lru.Cache[string, *Document]
}

// NewCache returns a Cache holding at most size materialised documents,
// evicting least-recently-used entries beyond that.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[string, *Document](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Digest computes the cache key for an operation set: the SHA-256 hash of
// its sorted operation ids, joined with a separator byte that cannot
// appear in a hex id.
func Digest(operations []operation.WithMeta) string {
	ids := make([]hash.Hash, len(operations))
	for i, op := range operations {
		ids[i] = op.OperationID
	}
	sorted := hash.Sorted(ids)

	h := sha256.New()
	for _, id := range sorted {
		h.Write([]byte(id.String()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Build returns the cached Document for this operation set if present,
// otherwise builds it with the given options, stores it, and returns it.
func (c *Cache) Build(operations []operation.WithMeta, opts ...Option) (*Document, error) {
	key := Digest(operations)
	if doc, ok := c.lru.Get(key); ok {
		return doc, nil
	}

	doc, err := NewBuilder(operations, opts...).Build()
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, doc)
	return doc, nil
}

// Len reports the number of cached documents.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge clears the cache.
func (c *Cache) Purge() { c.lru.Purge() }
