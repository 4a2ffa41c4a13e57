/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import "context"

// Plugin hooks into the request pipeline. Nil hooks are skipped.
type Plugin struct {
	Name string

	// DidResolveOperation runs once the operation to execute is known and
	// before it executes. A returned *transport.HTTPError aborts the request
	// with that HTTP response; any other error is reported as a GraphQL error.
	DidResolveOperation func(ctx context.Context, rc *RequestContext) error

	// WillSendResponse runs last, for successful and failed requests alike.
	WillSendResponse func(ctx context.Context, rc *RequestContext, resp *Response)
}

// ProcessOptions are the per-request options the pipeline runs with.
type ProcessOptions struct {
	Plugins     []Plugin
	Debug       bool
	FormatError FormatterFunc

	// CacheControl is the hint applied to query operations that set none.
	CacheControl CacheHint
}

// FormatOptions returns the options errors of this request are formatted with.
func (o *ProcessOptions) FormatOptions() FormatOptions {
	return FormatOptions{Debug: o.Debug, Formatter: o.FormatError}
}
