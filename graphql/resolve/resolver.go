/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package resolve runs GraphQL requests: it parses and validates the query,
// picks the operation to run, calls plugin hooks and executes the operation.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/dgryski/go-farm"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	otrace "go.opencensus.io/trace"

	"github.com/hypermodeinc/gqlhttp/graphql/cache"
	"github.com/hypermodeinc/gqlhttp/graphql/schema"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
	"github.com/hypermodeinc/gqlhttp/x"
)

const (
	methodProcess = "resolve.Process"

	errInternal      = "Internal error"
	errEmptyQuery    = "GraphQL operations must contain a non-empty `query`."
	errNoOperation   = "Must provide an operation."
	errNoOpName      = "Must provide operation name if query contains multiple operations."
	errSubscriptions = "Subscriptions are not supported over HTTP."

	// MetricDocumentCacheHit is the RequestContext.Metrics key recording whether
	// the parsed document came from the document store.
	MetricDocumentCacheHit = "documentCacheHit"
)

// RequestResolver is the request pipeline. It is safe for concurrent use: all
// per-request state lives in the RequestContext.
type RequestResolver struct {
	docs *cache.DocumentStore
}

// New creates a new RequestResolver. docs may be nil, in which case every
// query is parsed and validated on every request.
func New(docs *cache.DocumentStore) *RequestResolver {
	return &RequestResolver{docs: docs}
}

// Process runs rc.Request through the pipeline and returns the GraphQL
// response. Failures before execution are reported as a response without
// data. Apart from being called without a schema or request, the only error
// returned is a *transport.HTTPError raised by a plugin, which the caller
// turns into an HTTP response of its own.
//
// Errors in the returned response are already formatted with opts.
func (r *RequestResolver) Process(ctx context.Context, opts *schema.ProcessOptions,
	rc *schema.RequestContext) (*schema.Response, error) {

	ctx, span := otrace.StartSpan(ctx, methodProcess)
	defer span.End()

	if opts == nil {
		opts = &schema.ProcessOptions{}
	}
	if r == nil || rc == nil || rc.Schema == nil || rc.Request == nil {
		return nil, errors.New(errInternal)
	}
	if rc.Logger == nil {
		rc.Logger = x.NewLogger()
	}
	if rc.Metrics == nil {
		rc.Metrics = make(map[string]interface{})
	}
	if rc.OverallCachePolicy == nil {
		rc.OverallCachePolicy = schema.NewCachePolicy()
	}
	if rc.Response.HTTP == nil {
		rc.Response.HTTP = transport.NewPartialResponse()
	}
	if rc.Response.HTTP.Headers == nil {
		rc.Response.HTTP.Headers = transport.NewHeaderMap()
	}

	resp, err := r.process(ctx, opts, rc)
	if err != nil {
		span.Annotatef(nil, "Request rejected: %v", err)
		return nil, err
	}
	resp.HTTP = rc.Response.HTTP

	for _, p := range opts.Plugins {
		if p.WillSendResponse != nil {
			p.WillSendResponse(ctx, rc, resp)
		}
	}
	return resp, nil
}

func (r *RequestResolver) process(ctx context.Context, opts *schema.ProcessOptions,
	rc *schema.RequestContext) (*schema.Response, error) {

	req := rc.Request
	preExec := func(err error) *schema.Response {
		return &schema.Response{
			Errors: schema.FormatErrors([]error{err}, opts.FormatOptions()),
		}
	}

	if strings.TrimSpace(req.Query) == "" {
		return preExec(schema.NewCodedError(schema.CodeBadRequest, errEmptyQuery)), nil
	}

	doc, gqlErrs := r.document(ctx, rc)
	if gqlErrs != nil {
		return preExec(gqlErrs), nil
	}

	op, err := resolveOperation(doc, req.OperationName)
	if err != nil {
		return preExec(err), nil
	}
	rc.Document = doc
	rc.Operation = op
	rc.OperationName = op.Name

	for _, p := range opts.Plugins {
		if p.DidResolveOperation == nil {
			continue
		}
		if err := p.DidResolveOperation(ctx, rc); err != nil {
			var httpErr *transport.HTTPError
			if errors.As(err, &httpErr) {
				return nil, httpErr
			}
			return preExec(err), nil
		}
	}

	if op.Operation == ast.Subscription {
		return preExec(schema.NewCodedError(schema.CodeBadRequest, errSubscriptions)), nil
	}

	// Introspection queries are sent too frequently by GraphQL dev tools
	// to be worth logging.
	if !isIntrospection(op) {
		rc.Logger.Debugf("Resolving GQL %s %q (hash %s): \n%s", op.Operation,
			op.Name, rc.QueryHash, req.Query)
	}

	resp := rc.Schema.Execute(ctx, req)
	if resp == nil {
		resp = schema.ErrorResponse(errors.New(errInternal))
	}
	resp.Errors = schema.FormatErrors(resp.Errors.Errors(), opts.FormatOptions())

	if op.Operation == ast.Query && len(resp.Errors) == 0 && resp.HasData() {
		applyCachePolicy(opts.CacheControl, rc)
	}
	return resp, nil
}

// document returns the parsed and validated document for rc.Request, from
// the document store when possible. Only documents that validate are stored.
func (r *RequestResolver) document(ctx context.Context,
	rc *schema.RequestContext) (*ast.QueryDocument, schema.GqlErrorList) {

	hash := farm.Fingerprint64([]byte(rc.Request.Query))
	rc.QueryHash = fmt.Sprintf("%016x", hash)

	if r.docs != nil {
		if doc, ok := r.docs.Get(hash); ok {
			rc.Metrics[MetricDocumentCacheHit] = true
			stats.Record(ctx, x.NumDocumentCacheHits.M(1))
			return doc, nil
		}
		rc.Metrics[MetricDocumentCacheHit] = false
	}

	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: rc.Request.Query})
	if gqlErr != nil {
		return nil, schema.AsGQLErrors(gqlErr).WithCode(schema.CodeParseFailed)
	}
	if errs := rc.Schema.Validate(rc.Request); len(errs) > 0 {
		return nil, errs.WithCode(schema.CodeValidationFailed)
	}

	if r.docs != nil {
		r.docs.Put(hash, doc)
	}
	return doc, nil
}

func resolveOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if len(doc.Operations) == 0 {
		return nil, schema.NewCodedError(schema.CodeOperationResolutionFailure, errNoOperation)
	}
	if op := doc.Operations.ForName(name); op != nil {
		return op, nil
	}
	if name == "" {
		return nil, schema.NewCodedError(schema.CodeOperationResolutionFailure, errNoOpName)
	}
	return nil, schema.NewCodedError(schema.CodeOperationResolutionFailure,
		fmt.Sprintf("Unknown operation named %q.", name))
}

func applyCachePolicy(def schema.CacheHint, rc *schema.RequestContext) {
	policy := rc.OverallCachePolicy
	if _, ok := policy.Policy(); !ok && def.MaxAge > 0 {
		policy.Replace(def)
	}
	headers := rc.Response.HTTP.Headers
	if v := policy.HeaderValue(); v != "" && !headers.Has(transport.HeaderCacheControl) {
		headers.MustSet(transport.HeaderCacheControl, v)
	}
}

func isIntrospection(op *ast.OperationDefinition) bool {
	if op.Operation != ast.Query || len(op.SelectionSet) == 0 {
		return false
	}
	for _, sel := range op.SelectionSet {
		f, ok := sel.(*ast.Field)
		if !ok || !strings.HasPrefix(f.Name, "__") {
			return false
		}
	}
	return true
}
