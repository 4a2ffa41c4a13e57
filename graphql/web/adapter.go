/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package web adapts the GraphQL request pipeline to HTTP. It turns a
// transport-neutral request description into a GraphQL request, runs it and
// turns the result back into an HTTP response, and binds all of that to
// net/http.
package web

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/hypermodeinc/gqlhttp/graphql/api"
	"github.com/hypermodeinc/gqlhttp/graphql/cache"
	"github.com/hypermodeinc/gqlhttp/graphql/resolve"
	"github.com/hypermodeinc/gqlhttp/graphql/schema"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
	"github.com/hypermodeinc/gqlhttp/x"
)

const (
	defaultDocumentStoreSize = 1000
	defaultCacheBytes        = 32 << 20
	defaultMaxBodySize       = 10 << 20

	fallbackBody = `{"errors":[{"message":"Internal server error",` +
		`"extensions":{"code":"INTERNAL_SERVER_ERROR"}}]}` + "\n"
)

// Processor runs a GraphQL request. resolve.RequestResolver is the standard
// implementation.
//
// Process reports GraphQL failures inside the returned response, with errors
// already formatted. The only error it returns for a well formed request is
// a *transport.HTTPError, which becomes the HTTP response as it is.
type Processor interface {
	Process(ctx context.Context, opts *schema.ProcessOptions,
		rc *schema.RequestContext) (*schema.Response, error)
}

// Options configure an Adapter. Only Executor is required.
type Options struct {
	Executor schema.Executor

	// Pipeline defaults to a resolve.RequestResolver with a document store.
	Pipeline Processor
	Plugins  []schema.Plugin

	// Logger defaults to the glog backed logger.
	Logger x.Logger
	// Cache defaults to an in-memory cache of 32MB.
	Cache schema.KeyValueCache

	// Debug adds stack traces to errors. When nil it is on unless Env is
	// "production" or "test".
	Debug       *bool
	Env         string
	FormatError schema.FormatterFunc

	// ContextFunc builds the application context for requests served by
	// ServeHTTP.
	ContextFunc ContextFunc

	// MaxBodySize limits request bodies read by ServeHTTP. Defaults to 10MB.
	MaxBodySize int64

	// CacheControl is the cache hint for successful queries that set none.
	CacheControl schema.CacheHint
}

// Adapter serves GraphQL over HTTP. It is safe for concurrent use.
type Adapter struct {
	opts     Options
	debug    bool
	logger   x.Logger
	pipeline Processor

	// closers release the caches the adapter created itself.
	closers []func()
}

// New returns an Adapter for opts.
func New(opts Options) (*Adapter, error) {
	if opts.Executor == nil {
		return nil, errors.New("an executor is required")
	}

	a := &Adapter{
		opts:   opts,
		debug:  debugDefault(opts.Debug, opts.Env),
		logger: opts.Logger,
	}
	if a.logger == nil {
		a.logger = x.NewLogger()
	}
	if a.opts.MaxBodySize <= 0 {
		a.opts.MaxBodySize = defaultMaxBodySize
	}

	if a.opts.Cache == nil {
		kv, err := cache.NewKV(defaultCacheBytes)
		if err != nil {
			return nil, err
		}
		a.opts.Cache = kv
		a.closers = append(a.closers, kv.Close)
	}

	a.pipeline = opts.Pipeline
	if a.pipeline == nil {
		docs, err := cache.NewDocumentStore(defaultDocumentStoreSize)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.pipeline = resolve.New(docs)
		a.closers = append(a.closers, docs.Close)
	}
	return a, nil
}

// Debug reports whether errors are sent with debug detail.
func (a *Adapter) Debug() bool {
	return a.debug
}

// Close releases the caches created by New.
func (a *Adapter) Close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}

// Run handles one request. appCtx is the application context; the request
// sees a shallow copy of it. Run always returns a response: a rejected
// request, an internal error or a panic each become one.
func (a *Adapter) Run(ctx context.Context, appCtx interface{},
	req *transport.HTTPRequest) (resp *transport.HTTPResponse) {

	defer api.PanicHandler(api.RequestID(ctx), func(err error) {
		resp = a.errorResponse(err)
	})

	out, err := a.run(ctx, appCtx, req)
	if err != nil {
		return a.errorResponse(err)
	}
	return out
}

func (a *Adapter) run(ctx context.Context, appCtx interface{},
	req *transport.HTTPRequest) (*transport.HTTPResponse, error) {

	if req == nil {
		return nil, errors.New("no request")
	}
	gqlReq, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	rc := a.newRequestContext(appCtx, gqlReq)
	opts := &schema.ProcessOptions{
		Plugins:      pluginsFor(req.Method, a.opts.Plugins),
		Debug:        a.debug,
		FormatError:  a.opts.FormatError,
		CacheControl: a.opts.CacheControl,
	}
	res, err := a.pipeline.Process(ctx, opts, rc)
	if err != nil {
		return nil, err
	}
	return translateResponse(res, rc.Response.HTTP)
}

// errorResponse converts an error raised while handling a request into a
// response. HTTP errors map to themselves; anything else is a 500 with the
// error formatted as GraphQL.
func (a *Adapter) errorResponse(err error) *transport.HTTPResponse {
	var httpErr *transport.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.ToResponse()
	}

	a.logger.Errorf("Error while handling GraphQL request: %+v", err)
	res := &schema.Response{
		Errors: schema.FormatErrors([]error{err}, schema.FormatOptions{
			Debug:     a.debug,
			Formatter: a.opts.FormatError,
		}),
	}
	body, merr := res.Envelope()
	if merr != nil {
		a.logger.Errorf("While marshalling error response: %v", merr)
		body = []byte(fallbackBody)
	}
	return &transport.HTTPResponse{
		StatusCode:   http.StatusInternalServerError,
		Headers:      transport.MustHeaders(transport.HeaderContentType, transport.ContentTypeJSON),
		CompleteBody: string(body),
	}
}
