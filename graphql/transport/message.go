/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package transport holds the transport-neutral shapes the GraphQL adapter
// consumes and produces: the inbound request description, the response that
// pipeline plugins may touch before the body is known, and the final response.
// None of these types know about net/http.
package transport

// HTTPRequest describes an inbound HTTP request after the transport has parsed
// it. Body is the decoded request body: a map[string]interface{} for JSON
// objects, []interface{} for arrays, []byte for raw payloads, or nil.
// SearchParams holds the query-string parameters.
//
// The adapter never mutates an HTTPRequest.
type HTTPRequest struct {
	Method       string
	Body         interface{}
	SearchParams map[string]interface{}
	Headers      *HeaderMap
}

// PartialResponse collects the status and headers of a response whose body is
// not known yet. It is shared by reference with the pipeline so plugins can
// set headers or a status as a side effect. A zero StatusCode means unset.
type PartialResponse struct {
	Headers    *HeaderMap
	StatusCode int
}

// NewPartialResponse returns a PartialResponse with no headers and no status.
func NewPartialResponse() *PartialResponse {
	return &PartialResponse{Headers: NewHeaderMap()}
}

// Status returns the status set on r, or def when none was set.
func (r *PartialResponse) Status(def int) int {
	if r == nil || r.StatusCode == 0 {
		return def
	}
	return r.StatusCode
}

// HTTPResponse is the final response handed back to the transport. Exactly
// one of CompleteBody and BodyChunks is meaningful: BodyChunks is non-nil only
// when the pipeline streams its result incrementally.
type HTTPResponse struct {
	StatusCode   int
	Headers      *HeaderMap
	CompleteBody string
	BodyChunks   <-chan []byte
}

// Chunked reports whether the body is delivered through BodyChunks.
func (r *HTTPResponse) Chunked() bool {
	return r.BodyChunks != nil
}
