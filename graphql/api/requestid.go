/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package api holds helpers shared by the HTTP entry points: panic recovery
// and request identifiers.
package api

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

type requestIDKey struct{}

// Incoming ids are only trusted when they are short and printable.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// NewContext returns a context carrying the request id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored in ctx, or "" if there is none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithRequestID gives every request an id: the client's x-request-id header if
// it sent a usable one, otherwise a new UUID. The id is echoed back in the
// response header and stored in the request context.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(transport.HeaderRequestID)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(transport.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
	})
}
