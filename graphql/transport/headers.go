/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package transport

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Header names used by the adapter. All of them are already lower-case.
const (
	HeaderAllow           = "allow"
	HeaderCacheControl    = "cache-control"
	HeaderContentEncoding = "content-encoding"
	HeaderContentLength   = "content-length"
	HeaderContentType     = "content-type"
	HeaderRequestID       = "x-request-id"

	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// ErrInvalidHeaderName is returned by HeaderMap.Set for names that are not lower-case.
var ErrInvalidHeaderName = errors.New("invalid header name")

// HeaderMap is an insertion-ordered collection of HTTP headers keyed by name.
//
// Every stored name is lower-case. Set never normalizes a name: a name holding
// an upper-case rune is rejected, so callers lower-case names at the boundary
// where they enter the adapter. The zero value is an empty map ready to use.
type HeaderMap struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewHeaderMap returns an empty HeaderMap.
func NewHeaderMap() *HeaderMap {
	return &HeaderMap{m: orderedmap.New[string, string]()}
}

// Headers builds a HeaderMap from name, value pairs.
func Headers(pairs ...string) (*HeaderMap, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.Errorf("odd number of header arguments: %d", len(pairs))
	}
	h := NewHeaderMap()
	for i := 0; i < len(pairs); i += 2 {
		if err := h.Set(pairs[i], pairs[i+1]); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// MustHeaders is like Headers but panics on invalid input. It is meant for
// header lists written as constants in code.
func MustHeaders(pairs ...string) *HeaderMap {
	h, err := Headers(pairs...)
	if err != nil {
		panic(err)
	}
	return h
}

func validName(name string) bool {
	return strings.IndexFunc(name, unicode.IsUpper) < 0
}

func (h *HeaderMap) lazyInit() {
	if h.m == nil {
		h.m = orderedmap.New[string, string]()
	}
}

// Set stores value under name, replacing any existing value while keeping the
// original insertion position.
func (h *HeaderMap) Set(name, value string) error {
	if !validName(name) {
		return errors.Wrapf(ErrInvalidHeaderName, "header %q is not lower-case", name)
	}
	h.lazyInit()
	h.m.Set(name, value)
	return nil
}

// MustSet is Set for names known to be valid. It panics otherwise.
func (h *HeaderMap) MustSet(name, value string) {
	if err := h.Set(name, value); err != nil {
		panic(err)
	}
}

// Get returns the value stored under name.
func (h *HeaderMap) Get(name string) (string, bool) {
	if h == nil || h.m == nil {
		return "", false
	}
	return h.m.Get(name)
}

// Value returns the value stored under name, or "" when absent.
func (h *HeaderMap) Value(name string) string {
	v, _ := h.Get(name)
	return v
}

func (h *HeaderMap) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Delete removes name and reports whether it was present.
func (h *HeaderMap) Delete(name string) bool {
	if h == nil || h.m == nil {
		return false
	}
	_, ok := h.m.Delete(name)
	return ok
}

func (h *HeaderMap) Len() int {
	if h == nil || h.m == nil {
		return 0
	}
	return h.m.Len()
}

// Range calls fn for every header in insertion order until fn returns false.
func (h *HeaderMap) Range(fn func(name, value string) bool) {
	if h == nil || h.m == nil {
		return
	}
	for p := h.m.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

// Names returns the header names in insertion order.
func (h *HeaderMap) Names() []string {
	names := make([]string, 0, h.Len())
	h.Range(func(name, _ string) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Merge copies every header of other into h. Names already present in h keep
// their position and take the value from other.
func (h *HeaderMap) Merge(other *HeaderMap) {
	if other.Len() == 0 {
		return
	}
	h.lazyInit()
	// other only ever holds validated names.
	other.Range(func(name, value string) bool {
		h.m.Set(name, value)
		return true
	})
}

// Clone returns an independent copy of h.
func (h *HeaderMap) Clone() *HeaderMap {
	c := NewHeaderMap()
	c.Merge(h)
	return c
}
