/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/stretchr/testify/require"

	"github.com/hypermodeinc/gqlhttp/graphql/cache"
	"github.com/hypermodeinc/gqlhttp/graphql/schema"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

const testSDL = `
	schema {
		query: Query
		mutation: Mutation
	}

	type Query {
		hello: String!
		echo(msg: String!): String!
		fail: String
	}

	type Mutation {
		noop: Boolean!
	}
`

type testRoot struct{}

func (testRoot) Hello() string { return "world" }

func (testRoot) Echo(args struct{ Msg string }) string { return args.Msg }

func (testRoot) Fail() (*string, error) {
	return nil, schema.NewCodedError("FORBIDDEN", "not allowed")
}

func (testRoot) Noop() bool { return true }

func newExecutor(t *testing.T) *SchemaExecutor {
	ex, err := NewSchemaExecutor(testSDL, &testRoot{})
	require.NoError(t, err)
	return ex
}

func newRequestContext(t *testing.T, req *schema.Request) *schema.RequestContext {
	return &schema.RequestContext{
		Schema:   newExecutor(t),
		Request:  req,
		Response: schema.ResponseContext{HTTP: transport.NewPartialResponse()},
	}
}

func TestProcessQuery(t *testing.T) {
	rc := newRequestContext(t, &schema.Request{Query: `{ hello }`})
	resp, err := New(nil).Process(context.Background(), nil, rc)
	require.NoError(t, err)
	require.Empty(t, resp.Errors)
	require.JSONEq(t, `{"hello":"world"}`, string(resp.Data))
	require.Same(t, rc.Response.HTTP, resp.HTTP)
	require.NotNil(t, rc.Operation)
	require.Len(t, rc.QueryHash, 16)
}

func TestProcessVariables(t *testing.T) {
	rc := newRequestContext(t, &schema.Request{
		Query:     `query Echo($m: String!) { echo(msg: $m) }`,
		Variables: map[string]interface{}{"m": "hi"},
	})
	resp, err := New(nil).Process(context.Background(), nil, rc)
	require.NoError(t, err)
	require.Empty(t, resp.Errors)
	require.JSONEq(t, `{"echo":"hi"}`, string(resp.Data))
	require.Equal(t, "Echo", rc.OperationName)
}

func TestValidateIgnoresVariableValues(t *testing.T) {
	ex := newExecutor(t)
	query := `query Echo($m: String!) { echo(msg: $m) }`

	require.Empty(t, ex.Validate(&schema.Request{Query: query}))
	require.Empty(t, ex.Validate(&schema.Request{Query: query,
		Variables: map[string]interface{}{"m": "hi"}}))

	errs := ex.Validate(&schema.Request{Query: `query Echo($m: String!) { echo(msg: $x) }`})
	require.NotEmpty(t, errs)
	require.Equal(t, schema.CodeValidationFailed, errs[0].ErrorCode())
}

func TestExecuteChecksVariableValues(t *testing.T) {
	ex := newExecutor(t)
	query := `query Echo($m: String!) { echo(msg: $m) }`

	resp := ex.Execute(context.Background(), &schema.Request{Query: query})
	require.False(t, resp.HasData())
	require.NotEmpty(t, resp.Errors)
	require.Equal(t, schema.CodeBadUserInput, resp.Errors[0].ErrorCode())

	resp = ex.Execute(context.Background(), &schema.Request{Query: query,
		Variables: map[string]interface{}{"m": "hi"}})
	require.Empty(t, resp.Errors)
	require.JSONEq(t, `{"echo":"hi"}`, string(resp.Data))
}

func TestProcessVariablesWithDocumentStore(t *testing.T) {
	docs, err := cache.NewDocumentStore(10)
	require.NoError(t, err)
	defer docs.Close()
	r := New(docs)
	query := `query Echo($m: String!) { echo(msg: $m) }`

	for _, msg := range []string{"first", "second"} {
		rc := newRequestContext(t, &schema.Request{Query: query,
			Variables: map[string]interface{}{"m": msg}})
		resp, err := r.Process(context.Background(), nil, rc)
		require.NoError(t, err)
		require.Empty(t, resp.Errors)
		require.JSONEq(t, `{"echo":"`+msg+`"}`, string(resp.Data))
	}

	// The stored document does not hide the value check.
	rc := newRequestContext(t, &schema.Request{Query: query})
	resp, err := r.Process(context.Background(), nil, rc)
	require.NoError(t, err)
	require.Equal(t, true, rc.Metrics[MetricDocumentCacheHit])
	require.False(t, resp.HasData())
	require.Equal(t, schema.CodeBadUserInput, resp.Errors[0].ErrorCode())
}

func TestProcessPreExecutionFailures(t *testing.T) {
	tcs := []struct {
		name    string
		req     *schema.Request
		code    string
		message string
	}{
		{
			name:    "empty query",
			req:     &schema.Request{Query: "  "},
			code:    schema.CodeBadRequest,
			message: errEmptyQuery,
		},
		{
			name: "parse error",
			req:  &schema.Request{Query: `{ hello `},
			code: schema.CodeParseFailed,
		},
		{
			name: "validation error",
			req:  &schema.Request{Query: `{ nope }`},
			code: schema.CodeValidationFailed,
		},
		{
			name: "fragments only",
			req:  &schema.Request{Query: `fragment F on Query { hello }`},
		},
		{
			name:    "ambiguous operation",
			req:     &schema.Request{Query: `query A { hello } query B { hello }`},
			code:    schema.CodeOperationResolutionFailure,
			message: errNoOpName,
		},
		{
			name: "unknown operation",
			req: &schema.Request{Query: `query A { hello } query B { hello }`,
				OperationName: "C"},
			code:    schema.CodeOperationResolutionFailure,
			message: `Unknown operation named "C".`,
		},
		{
			name: "missing variable",
			req:  &schema.Request{Query: `query ($m: String!) { echo(msg: $m) }`},
			code: schema.CodeBadUserInput,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			rc := newRequestContext(t, tc.req)
			resp, err := New(nil).Process(context.Background(), nil, rc)
			require.NoError(t, err)
			require.False(t, resp.HasData())
			require.NotEmpty(t, resp.Errors)
			if tc.code != "" {
				require.Equal(t, tc.code, resp.Errors[0].ErrorCode())
			}
			if tc.message != "" {
				require.Equal(t, tc.message, resp.Errors[0].Message)
			}
		})
	}
}

func TestProcessFieldError(t *testing.T) {
	rc := newRequestContext(t, &schema.Request{Query: `{ hello fail }`})
	resp, err := New(nil).Process(context.Background(), nil, rc)
	require.NoError(t, err)
	require.JSONEq(t, `{"hello":"world","fail":null}`, string(resp.Data))
	require.Len(t, resp.Errors, 1)
	require.Equal(t, "not allowed", resp.Errors[0].Message)
	require.Equal(t, "FORBIDDEN", resp.Errors[0].ErrorCode())
	require.Equal(t, []interface{}{"fail"}, resp.Errors[0].Path)
}

func TestProcessPluginHooks(t *testing.T) {
	var order []string
	opts := &schema.ProcessOptions{Plugins: []schema.Plugin{
		{
			Name: "first",
			DidResolveOperation: func(ctx context.Context, rc *schema.RequestContext) error {
				order = append(order, "first:"+string(rc.Operation.Operation))
				rc.Response.HTTP.Headers.MustSet("x-plugin", "1")
				return nil
			},
			WillSendResponse: func(ctx context.Context, rc *schema.RequestContext,
				resp *schema.Response) {
				order = append(order, "send")
			},
		},
		{
			Name: "second",
			DidResolveOperation: func(ctx context.Context, rc *schema.RequestContext) error {
				order = append(order, "second")
				return nil
			},
		},
	}}

	rc := newRequestContext(t, &schema.Request{Query: `mutation { noop }`})
	resp, err := New(nil).Process(context.Background(), opts, rc)
	require.NoError(t, err)
	require.JSONEq(t, `{"noop":true}`, string(resp.Data))
	require.Equal(t, []string{"first:mutation", "second", "send"}, order)
	require.Equal(t, "1", resp.HTTP.Headers.Value("x-plugin"))
}

func TestProcessPluginErrors(t *testing.T) {
	httpErr := transport.NewHTTPError(http.StatusMethodNotAllowed, "nope", false, nil)
	opts := &schema.ProcessOptions{Plugins: []schema.Plugin{{
		DidResolveOperation: func(ctx context.Context, rc *schema.RequestContext) error {
			return httpErr
		},
	}}}
	rc := newRequestContext(t, &schema.Request{Query: `{ hello }`})
	resp, err := New(nil).Process(context.Background(), opts, rc)
	require.Nil(t, resp)
	require.Same(t, httpErr, err)

	opts.Plugins[0].DidResolveOperation = func(ctx context.Context,
		rc *schema.RequestContext) error {
		return schema.NewCodedError("UNAUTHENTICATED", "who are you")
	}
	rc = newRequestContext(t, &schema.Request{Query: `{ hello }`})
	resp, err = New(nil).Process(context.Background(), opts, rc)
	require.NoError(t, err)
	require.False(t, resp.HasData())
	require.Equal(t, "UNAUTHENTICATED", resp.Errors[0].ErrorCode())
}

func TestProcessCacheControl(t *testing.T) {
	opts := &schema.ProcessOptions{
		CacheControl: schema.CacheHint{MaxAge: time.Minute},
	}

	rc := newRequestContext(t, &schema.Request{Query: `{ hello }`})
	_, err := New(nil).Process(context.Background(), opts, rc)
	require.NoError(t, err)
	require.Equal(t, "max-age=60, public",
		rc.Response.HTTP.Headers.Value(transport.HeaderCacheControl))

	rc = newRequestContext(t, &schema.Request{Query: `mutation { noop }`})
	_, err = New(nil).Process(context.Background(), opts, rc)
	require.NoError(t, err)
	require.False(t, rc.Response.HTTP.Headers.Has(transport.HeaderCacheControl))

	rc = newRequestContext(t, &schema.Request{Query: `{ fail }`})
	_, err = New(nil).Process(context.Background(), opts, rc)
	require.NoError(t, err)
	require.False(t, rc.Response.HTTP.Headers.Has(transport.HeaderCacheControl))
}

func TestProcessFormatsErrors(t *testing.T) {
	opts := &schema.ProcessOptions{
		FormatError: func(err *schema.GqlError) *schema.GqlError {
			err.Message = "masked"
			return err
		},
	}
	rc := newRequestContext(t, &schema.Request{Query: `{ fail }`})
	resp, err := New(nil).Process(context.Background(), opts, rc)
	require.NoError(t, err)
	require.Equal(t, "masked", resp.Errors[0].Message)
}

func TestProcessDocumentStore(t *testing.T) {
	docs, err := cache.NewDocumentStore(10)
	require.NoError(t, err)
	defer docs.Close()
	r := New(docs)

	rc := newRequestContext(t, &schema.Request{Query: `{ hello }`})
	_, err = r.Process(context.Background(), nil, rc)
	require.NoError(t, err)
	require.Equal(t, false, rc.Metrics[MetricDocumentCacheHit])

	rc2 := newRequestContext(t, &schema.Request{Query: `{ hello }`})
	resp, err := r.Process(context.Background(), nil, rc2)
	require.NoError(t, err)
	require.Equal(t, true, rc2.Metrics[MetricDocumentCacheHit])
	require.Same(t, rc.Document, rc2.Document)
	require.Equal(t, rc.QueryHash, rc2.QueryHash)
	require.JSONEq(t, `{"hello":"world"}`, string(resp.Data))

	// Invalid documents are never stored.
	rc3 := newRequestContext(t, &schema.Request{Query: `{ nope }`})
	_, err = r.Process(context.Background(), nil, rc3)
	require.NoError(t, err)
	rc4 := newRequestContext(t, &schema.Request{Query: `{ nope }`})
	_, err = r.Process(context.Background(), nil, rc4)
	require.NoError(t, err)
	require.Equal(t, false, rc4.Metrics[MetricDocumentCacheHit])
}

// validOnly accepts every document and never executes.
type validOnly struct{}

func (validOnly) Validate(*schema.Request) schema.GqlErrorList { return nil }

func (validOnly) Execute(context.Context, *schema.Request) *schema.Response {
	panic("unexpected execution")
}

func TestProcessRejectsSubscriptions(t *testing.T) {
	rc := &schema.RequestContext{
		Schema:  validOnly{},
		Request: &schema.Request{Query: `subscription { ticks }`},
	}
	resp, err := New(nil).Process(context.Background(), nil, rc)
	require.NoError(t, err)
	require.False(t, resp.HasData())
	require.Equal(t, schema.CodeBadRequest, resp.Errors[0].ErrorCode())
	require.Equal(t, errSubscriptions, resp.Errors[0].Message)
}

func TestResolveOperationWithoutOperations(t *testing.T) {
	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: `fragment F on Query { hello }`})
	require.Nil(t, gqlErr)
	_, err := resolveOperation(doc, "")
	require.EqualError(t, err, errNoOperation)
	require.Equal(t, schema.CodeOperationResolutionFailure, schema.ErrorCode(err))
}

func TestIsIntrospection(t *testing.T) {
	for query, want := range map[string]bool{
		`{ __schema { types { name } } }`:    true,
		`{ __typename }`:                     true,
		`{ __typename hello }`:               false,
		`mutation { __typename }`:            false,
		`{ ...F } fragment F on Query { a }`: false,
	} {
		doc, gqlErr := parser.ParseQuery(&ast.Source{Input: query})
		require.Nil(t, gqlErr)
		require.Equal(t, want, isIntrospection(doc.Operations[0]), query)
	}
}

func TestProcessWithoutSchema(t *testing.T) {
	_, err := New(nil).Process(context.Background(), nil, &schema.RequestContext{})
	require.Error(t, err)
}
