/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"encoding/json"
	"net/http"

	"github.com/hypermodeinc/gqlhttp/graphql/schema"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

const (
	errPostBody = "POST body missing, invalid Content-Type, or JSON object has no keys."
	errGetQuery = "GET query missing."
	errMethod   = "This server supports only GET/POST requests."

	errQueryNotString = "GraphQL queries must be strings."
	errQueryDocument  = "GraphQL queries must be strings. It looks like you're sending the " +
		"internal graphql-js representation of a parsed query in your request instead of a " +
		"request in the GraphQL query language. You can convert an AST to a string using the " +
		"`print` function from `graphql`, or use a client like `apollo-client` which converts " +
		"the internal representation to a string for you."
)

// valueKind is the shape of a decoded request value.
type valueKind int

const (
	kindNull valueKind = iota
	kindString
	kindRecord
	kindArray
	kindBytes
	kindOther
)

// classify reports the shape of a value decoded from a request body or query
// string.
func classify(v interface{}) valueKind {
	switch v.(type) {
	case nil:
		return kindNull
	case string:
		return kindString
	case map[string]interface{}, map[string]string:
		return kindRecord
	case []interface{}:
		return kindArray
	case []byte, json.RawMessage:
		return kindBytes
	default:
		return kindOther
	}
}

// asRecord returns v as a string keyed map if it is one.
func asRecord(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[string]string:
		out := make(map[string]interface{}, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func isNonEmptyRecord(v interface{}) bool {
	m, ok := asRecord(v)
	return ok && len(m) > 0
}

// isFalsy reports the values a client may send to mean "no query".
func isFalsy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}

func badRequest(message string) *transport.HTTPError {
	return transport.NewHTTPError(http.StatusBadRequest, message, false, nil)
}

// checkQuery fails unless query is missing or a string. A parsed document
// sent in place of the query text gets a dedicated message.
func checkQuery(query interface{}) error {
	if isFalsy(query) || classify(query) == kindString {
		return nil
	}
	if m, ok := asRecord(query); ok && m["kind"] == "Document" {
		return badRequest(errQueryDocument)
	}
	return badRequest(errQueryNotString)
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func recordField(m map[string]interface{}, key string) map[string]interface{} {
	r, _ := asRecord(m[key])
	return r
}

// jsonRecordField decodes a JSON object sent as text in a query-string
// parameter. Missing and empty parameters are ignored.
func jsonRecordField(m map[string]interface{}, key string) (map[string]interface{}, error) {
	raw, ok := m[key].(string)
	if !ok || raw == "" {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, badRequest("The " + key + " search parameter contains invalid JSON.")
	}
	r, ok := v.(map[string]interface{})
	if !ok {
		return nil, badRequest("The " + key +
			" search parameter should contain a JSON-encoded object.")
	}
	return r, nil
}

// normalizeRequest turns an HTTP request description into a GraphQL request.
// It never modifies req. Every error it returns is a *transport.HTTPError.
func normalizeRequest(req *transport.HTTPRequest) (*schema.Request, error) {
	switch req.Method {
	case http.MethodPost:
		if !isNonEmptyRecord(req.Body) {
			return nil, badRequest(errPostBody)
		}
		body, _ := asRecord(req.Body)
		if err := checkQuery(body["query"]); err != nil {
			return nil, err
		}
		return &schema.Request{
			Query:         stringField(body, "query"),
			OperationName: stringField(body, "operationName"),
			Variables:     recordField(body, "variables"),
			Extensions:    recordField(body, "extensions"),
			HTTP:          req,
		}, nil

	case http.MethodGet:
		if !isNonEmptyRecord(req.SearchParams) {
			return nil, badRequest(errGetQuery)
		}
		params, _ := asRecord(req.SearchParams)
		if err := checkQuery(params["query"]); err != nil {
			return nil, err
		}
		variables, err := jsonRecordField(params, "variables")
		if err != nil {
			return nil, err
		}
		extensions, err := jsonRecordField(params, "extensions")
		if err != nil {
			return nil, err
		}
		return &schema.Request{
			Query:         stringField(params, "query"),
			OperationName: stringField(params, "operationName"),
			Variables:     variables,
			Extensions:    extensions,
			HTTP:          req,
		}, nil

	default:
		return nil, transport.NewHTTPError(http.StatusMethodNotAllowed, errMethod, false,
			transport.MustHeaders(transport.HeaderAllow, "GET, POST"))
	}
}
