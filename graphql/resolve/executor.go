/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/pkg/errors"

	"github.com/hypermodeinc/gqlhttp/graphql/schema"
)

// ruleVariableValues is the graph-gophers validation rule that checks variable
// values against their declared types. Those values are checked by Execute.
const ruleVariableValues = "VariablesOfCorrectType"

// SchemaExecutor runs requests against a schema built from SDL and a root
// resolver, in the way graph-gophers/graphql-go resolves fields: every field
// maps to a method of the same name on the resolver of its parent type.
type SchemaExecutor struct {
	schema *graphql.Schema
}

// NewSchemaExecutor parses sdl and binds it to root.
func NewSchemaExecutor(sdl string, root interface{},
	opts ...graphql.SchemaOpt) (*SchemaExecutor, error) {

	s, err := graphql.ParseSchema(sdl, root, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "while parsing schema")
	}
	return &SchemaExecutor{schema: s}, nil
}

// Validate checks req.Query against the schema. Variable values are left to
// Execute, so the result is the same for every request with this query.
func (e *SchemaExecutor) Validate(req *schema.Request) schema.GqlErrorList {
	var docErrs []*gqlerrors.QueryError
	for _, qe := range e.schema.Validate(req.Query) {
		if qe != nil && qe.Rule != ruleVariableValues {
			docErrs = append(docErrs, qe)
		}
	}
	return convertErrors(docErrs, schema.CodeValidationFailed)
}

// Execute runs req. Errors that stop execution before any field resolved,
// such as variables of the wrong type, leave the response without data.
func (e *SchemaExecutor) Execute(ctx context.Context, req *schema.Request) *schema.Response {
	res := e.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)

	resp := &schema.Response{Extensions: res.Extensions}
	if len(res.Data) > 0 {
		resp.Data = res.Data
		resp.Errors = convertErrors(res.Errors, "")
	} else {
		resp.Errors = convertErrors(res.Errors, schema.CodeBadUserInput)
	}
	return resp
}

// convertErrors turns graph-gophers errors into GqlErrors. Errors raised by
// resolvers keep the resolver's error as their cause, and with it any code it
// carries. defaultCode, if not empty, is used for errors with no code.
func convertErrors(qErrs []*gqlerrors.QueryError, defaultCode string) schema.GqlErrorList {
	var result schema.GqlErrorList
	for _, qe := range qErrs {
		if qe == nil {
			continue
		}
		gqlErr := schema.GqlErrorf("%s", qe.Message)
		for _, loc := range qe.Locations {
			gqlErr.WithLocations(schema.Location{Line: loc.Line, Column: loc.Column})
		}
		if len(qe.Path) > 0 {
			gqlErr.WithPath(append([]interface{}(nil), qe.Path...))
		}
		for k, v := range qe.Extensions {
			if gqlErr.Extensions == nil {
				gqlErr.Extensions = make(map[string]interface{}, len(qe.Extensions))
			}
			gqlErr.Extensions[k] = v
		}

		cause := qe.ResolverError
		if cause == nil {
			cause = qe.Err
		}
		if cause != nil {
			gqlErr.WithCause(cause)
		}

		switch code := schema.ErrorCode(cause); {
		case gqlErr.ErrorCode() != "":
		case code != "":
			gqlErr.WithCode(code)
		case defaultCode != "" && qe.ResolverError == nil:
			gqlErr.WithCode(defaultCode)
		}
		result = append(result, gqlErr)
	}
	return result
}
