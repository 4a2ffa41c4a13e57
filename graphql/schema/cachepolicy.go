/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"fmt"
	"strings"
	"time"
)

type CacheScope string

const (
	ScopePublic  CacheScope = "PUBLIC"
	ScopePrivate CacheScope = "PRIVATE"
)

// CacheHint says how long, and for whom, a response may be cached.
type CacheHint struct {
	MaxAge time.Duration
	Scope  CacheScope
}

// CachePolicy accumulates the cache hints of one request. The zero policy has
// no hint, which means the response is not cacheable.
type CachePolicy struct {
	hint CacheHint
	set  bool
}

// NewCachePolicy returns an empty policy.
func NewCachePolicy() *CachePolicy {
	return &CachePolicy{}
}

// Restrict narrows the policy with h: the shorter max age wins and a private
// scope sticks.
func (p *CachePolicy) Restrict(h CacheHint) {
	if !p.set {
		p.Replace(h)
		return
	}
	if h.MaxAge < p.hint.MaxAge {
		p.hint.MaxAge = h.MaxAge
	}
	if h.Scope == ScopePrivate {
		p.hint.Scope = ScopePrivate
	}
}

// Replace discards the current policy in favour of h.
func (p *CachePolicy) Replace(h CacheHint) {
	if h.Scope == "" {
		h.Scope = ScopePublic
	}
	p.hint = h
	p.set = true
}

// Policy returns the current hint and whether any was recorded.
func (p *CachePolicy) Policy() (CacheHint, bool) {
	return p.hint, p.set
}

// HeaderValue renders the policy as a cache-control header value. It returns
// "" when the response must not be cached.
func (p *CachePolicy) HeaderValue() string {
	if !p.set || p.hint.MaxAge < time.Second {
		return ""
	}
	return fmt.Sprintf("max-age=%d, %s", int64(p.hint.MaxAge/time.Second),
		strings.ToLower(string(p.hint.Scope)))
}
