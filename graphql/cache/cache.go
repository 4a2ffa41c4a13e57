/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package cache provides the in-memory caches used while serving GraphQL:
// a byte-valued key/value cache exposed to plugins and resolvers, and a store
// of parsed query documents.
package cache

import (
	"time"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

// KV is a ristretto backed key/value cache bounded by the total size of the
// stored values.
type KV struct {
	data *ristretto.Cache[string, []byte]
}

// NewKV returns a KV cache holding at most maxBytes of values.
func NewKV(maxBytes int64) (*KV, error) {
	if maxBytes <= 0 {
		return nil, errors.Errorf("cache size must be positive, got %d", maxBytes)
	}
	data, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		// Assume values of roughly 1KB when sizing the counters.
		NumCounters: max(maxBytes/1024*10, 1000),
		MaxCost:     maxBytes,
		BufferItems: 64,
		// Only value bytes count against MaxCost.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "while creating key/value cache")
	}
	return &KV{data: data}, nil
}

func (c *KV) Get(key string) ([]byte, bool) {
	return c.data.Get(key)
}

// Set stores value under key. A ttl of zero means no expiry. The write is
// visible to Get once Set returns, unless the cache chose to drop it.
func (c *KV) Set(key string, value []byte, ttl time.Duration) {
	c.data.SetWithTTL(key, value, int64(len(value))+1, ttl)
	c.data.Wait()
}

func (c *KV) Delete(key string) {
	c.data.Del(key)
}

// Close stops the cache's background goroutines.
func (c *KV) Close() {
	c.data.Close()
}

// DocumentStore caches parsed query documents keyed by a fingerprint of the
// query text. Stored documents are shared between requests and must be
// treated as read-only.
type DocumentStore struct {
	docs *ristretto.Cache[uint64, *ast.QueryDocument]
}

// NewDocumentStore returns a store holding up to maxDocs documents.
func NewDocumentStore(maxDocs int64) (*DocumentStore, error) {
	if maxDocs <= 0 {
		return nil, errors.Errorf("document store size must be positive, got %d", maxDocs)
	}
	docs, err := ristretto.NewCache(&ristretto.Config[uint64, *ast.QueryDocument]{
		NumCounters: maxDocs * 10,
		MaxCost:     maxDocs,
		BufferItems: 64,
		// Each document costs 1, so MaxCost is a document count.
		IgnoreInternalCost: true,
		Cost: func(*ast.QueryDocument) int64 {
			return 1
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "while creating document store")
	}
	return &DocumentStore{docs: docs}, nil
}

func (s *DocumentStore) Get(hash uint64) (*ast.QueryDocument, bool) {
	return s.docs.Get(hash)
}

func (s *DocumentStore) Put(hash uint64, doc *ast.QueryDocument) {
	s.docs.Set(hash, doc, 1)
	s.docs.Wait()
}

func (s *DocumentStore) Close() {
	s.docs.Close()
}
