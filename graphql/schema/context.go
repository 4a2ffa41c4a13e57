/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"context"
	"reflect"
	"time"

	"github.com/dgraph-io/gqlparser/v2/ast"

	"github.com/hypermodeinc/gqlhttp/graphql/transport"
	"github.com/hypermodeinc/gqlhttp/x"
)

// Executor validates and executes GraphQL requests against a concrete schema.
type Executor interface {
	// Validate checks the query document against the schema. Variable values
	// are not looked at, so the result only depends on req.Query.
	Validate(req *Request) GqlErrorList
	Execute(ctx context.Context, req *Request) *Response
}

// KeyValueCache is the cache made available to plugins and resolvers.
type KeyValueCache interface {
	Get(key string) ([]byte, bool)
	// Set stores value under key. A ttl of zero means no expiry.
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}

// ResponseContext is the part of the response known before execution ends.
type ResponseContext struct {
	HTTP *transport.PartialResponse
}

// RequestContext is everything the pipeline knows about one GraphQL request.
// A new one is built for every HTTP request and never reused.
type RequestContext struct {
	Logger   x.Logger
	Schema   Executor
	Request  *Request
	Response ResponseContext

	// Context is this request's shallow copy of the application context.
	Context interface{}

	Cache              KeyValueCache
	Debug              bool
	Metrics            map[string]interface{}
	OverallCachePolicy *CachePolicy

	// Filled in by the pipeline as it goes.
	QueryHash     string
	Document      *ast.QueryDocument
	Operation     *ast.OperationDefinition
	OperationName string
}

// ContextCopier is implemented by application contexts that copy themselves.
type ContextCopier interface {
	ShallowCopy() interface{}
}

// CopyContext returns a shallow copy of an application context that keeps its
// dynamic type, so the copy implements every interface the original does.
// Top-level fields or keys are copied; anything they point to stays shared.
//
// A ContextCopier copies itself. Pointers to structs yield a new struct of the
// same type, maps a new map of the same type. Any other value is returned as is.
func CopyContext(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if c, ok := v.(ContextCopier); ok {
		return c.ShallowCopy()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return v
		}
		cp := reflect.New(rv.Elem().Type())
		cp.Elem().Set(rv.Elem())
		return cp.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		return cp.Interface()
	default:
		return v
	}
}
