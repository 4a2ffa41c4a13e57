/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

type normalizeCase struct {
	Name          string            `yaml:"name"`
	Method        string            `yaml:"method"`
	Body          string            `yaml:"body"`
	RawBody       string            `yaml:"rawBody"`
	SearchParams  map[string]string `yaml:"searchParams"`
	Want          string            `yaml:"want"`
	Status        int               `yaml:"status"`
	Message       string            `yaml:"message"`
	MessagePrefix string            `yaml:"messagePrefix"`
	Allow         string            `yaml:"allow"`
}

func (tc normalizeCase) request(t *testing.T) *transport.HTTPRequest {
	req := &transport.HTTPRequest{
		Method:  tc.Method,
		Headers: transport.NewHeaderMap(),
	}
	switch {
	case tc.Body != "":
		require.NoError(t, json.Unmarshal([]byte(tc.Body), &req.Body), "bad body in test case")
	case tc.RawBody != "":
		req.Body = []byte(tc.RawBody)
	}
	if len(tc.SearchParams) > 0 {
		req.SearchParams = make(map[string]interface{}, len(tc.SearchParams))
		for k, v := range tc.SearchParams {
			req.SearchParams[k] = v
		}
	}
	return req
}

func TestNormalizeRequest(t *testing.T) {
	b, err := os.ReadFile("request_test.yaml")
	require.NoError(t, err, "Unable to read test file")

	var tests []normalizeCase
	require.NoError(t, yaml.Unmarshal(b, &tests), "Unable to unmarshal tests to yaml.")
	require.NotEmpty(t, tests)

	for _, tcase := range tests {
		t.Run(tcase.Name, func(t *testing.T) {
			req := tcase.request(t)
			gqlReq, err := normalizeRequest(req)

			if tcase.Status == 0 {
				require.NoError(t, err)
				require.Same(t, req, gqlReq.HTTP)
				got, err := json.Marshal(gqlReq)
				require.NoError(t, err)
				require.JSONEq(t, tcase.Want, string(got))
				return
			}

			require.Nil(t, gqlReq)
			var httpErr *transport.HTTPError
			require.True(t, errors.As(err, &httpErr), "expected an HTTP error, got %v", err)
			require.Equal(t, tcase.Status, httpErr.StatusCode())
			require.False(t, httpErr.IsGraphQLError())
			if tcase.Message != "" {
				require.Equal(t, tcase.Message, httpErr.Error())
			}
			if tcase.MessagePrefix != "" {
				require.True(t, strings.HasPrefix(httpErr.Error(), tcase.MessagePrefix),
					httpErr.Error())
			}
			if tcase.Allow != "" {
				require.Equal(t, tcase.Allow, httpErr.Headers().Value(transport.HeaderAllow))
			} else {
				require.False(t, httpErr.Headers().Has(transport.HeaderAllow))
			}
		})
	}
}

func TestNormalizeRequestDoesNotModifyInput(t *testing.T) {
	body := map[string]interface{}{
		"query":     "{ hello }",
		"variables": map[string]interface{}{"a": 1.0},
	}
	req := &transport.HTTPRequest{Method: "POST", Body: body}
	before := map[string]interface{}{
		"query":     "{ hello }",
		"variables": map[string]interface{}{"a": 1.0},
	}

	_, err := normalizeRequest(req)
	require.NoError(t, err)
	require.Equal(t, before, body)
}

func TestNormalizeRequestStringMapBody(t *testing.T) {
	req := &transport.HTTPRequest{
		Method: "POST",
		Body:   map[string]string{"query": "{ hello }"},
	}
	gqlReq, err := normalizeRequest(req)
	require.NoError(t, err)
	require.Equal(t, "{ hello }", gqlReq.Query)
}

func TestClassify(t *testing.T) {
	tcs := []struct {
		v    interface{}
		want valueKind
	}{
		{nil, kindNull},
		{"q", kindString},
		{map[string]interface{}{}, kindRecord},
		{map[string]string{}, kindRecord},
		{[]interface{}{1}, kindArray},
		{[]byte("x"), kindBytes},
		{json.RawMessage(`{}`), kindBytes},
		{3.0, kindOther},
		{true, kindOther},
	}
	for _, tc := range tcs {
		require.Equal(t, tc.want, classify(tc.v), "%s", reflect.TypeOf(tc.v))
	}
}

func TestIsFalsy(t *testing.T) {
	for _, v := range []interface{}{nil, "", false, 0.0, json.Number("0")} {
		require.True(t, isFalsy(v), "%#v", v)
	}
	for _, v := range []interface{}{"{ a }", true, 1.0, json.Number("2"),
		map[string]interface{}{}} {
		require.False(t, isFalsy(v), "%#v", v)
	}
}
