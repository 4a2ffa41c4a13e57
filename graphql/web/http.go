/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/trace"

	"github.com/hypermodeinc/gqlhttp/graphql/api"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
	"github.com/hypermodeinc/gqlhttp/x"
)

// HTTPHandler returns a http.Handler that serves GraphQL, giving every
// request an id first.
func (a *Adapter) HTTPHandler() http.Handler {
	return api.WithRequestID(a)
}

// ServeHTTP handles GraphQL GET and POST requests and writes the response
// to w. A ContextFunc, if configured, runs before the request is processed.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, span := trace.StartSpan(r.Context(), "handler")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("method", r.Method))

	ctx = x.WithMethod(ctx, r.Method)
	stats.Record(ctx, x.PendingRequests.M(1))
	defer stats.Record(ctx, x.PendingRequests.M(-1))

	var resp *transport.HTTPResponse
	func() {
		defer api.PanicHandler(api.RequestID(ctx), func(err error) {
			resp = a.errorResponse(err)
		})
		resp = a.serve(ctx, w, r)
	}()

	n := a.write(w, resp, strings.Contains(r.Header.Get("Accept-Encoding"), "gzip"))

	span.AddAttributes(trace.Int64Attribute("status", int64(resp.StatusCode)))
	ctx = x.WithStatus(ctx, strconv.Itoa(resp.StatusCode))
	stats.Record(ctx, x.NumRequests.M(1),
		x.LatencyMs.M(float64(time.Since(start))/float64(time.Millisecond)))
	if !resp.Chunked() {
		stats.Record(ctx, x.BodyBytes.M(int64(n)))
	}
	a.logger.Debugf("%s %s [%s]: %d, %s in %s", r.Method, r.URL.Path,
		api.RequestID(ctx), resp.StatusCode, humanize.Bytes(uint64(n)), time.Since(start))
}

func (a *Adapter) serve(ctx context.Context, w http.ResponseWriter,
	r *http.Request) *transport.HTTPResponse {

	req, err := a.requestDescription(w, r)
	if err != nil {
		return a.errorResponse(err)
	}

	appCtx, errResp := RunContextFunc(ctx, a.opts.ContextFunc, ContextFuncOptions{
		Debug:       a.debug,
		FormatError: a.opts.FormatError,
	})
	if errResp != nil {
		return errResp
	}
	return a.Run(ctx, appCtx, req)
}

// requestDescription reads r into the form the adapter works on. Header names
// are lower-cased and repeated headers are joined with ", ". Only the first
// value of each query-string parameter is kept. Bodies are decoded as JSON
// when the content type says so and passed on as bytes otherwise.
func (a *Adapter) requestDescription(w http.ResponseWriter,
	r *http.Request) (*transport.HTTPRequest, error) {

	headers := transport.NewHeaderMap()
	for name, values := range r.Header {
		if err := headers.Set(strings.ToLower(name), strings.Join(values, ", ")); err != nil {
			return nil, err
		}
	}

	params := make(map[string]interface{})
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}

	req := &transport.HTTPRequest{
		Method:       r.Method,
		SearchParams: params,
		Headers:      headers,
	}
	if r.Method != http.MethodPost || r.Body == nil {
		return req, nil
	}

	data, err := a.readBody(w, r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return req, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != transport.ContentTypeJSON {
		req.Body = data
		return req, nil
	}

	var body interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, transport.NewHTTPError(http.StatusBadRequest,
			"Not a valid GraphQL request body: "+err.Error(), false, nil)
	}
	req.Body = body
	return req, nil
}

// readBody reads the request body, undoing any content encoding. Both the
// encoded and the decoded body are held to MaxBodySize.
func (a *Adapter) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := a.opts.MaxBodySize
	var body io.Reader = http.MaxBytesReader(w, r.Body, limit)

	switch enc := strings.ToLower(r.Header.Get("Content-Encoding")); enc {
	case "", "identity":
	case "gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, bodyError(errors.Wrap(err, "Unable to parse gzip"))
		}
		defer zr.Close()
		body = zr
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, bodyError(errors.Wrap(err, "Unable to parse zstd"))
		}
		defer zr.Close()
		body = zr
	default:
		return nil, transport.NewHTTPError(http.StatusUnsupportedMediaType,
			"Unsupported Content-Encoding: "+enc, false, nil)
	}

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, bodyError(err)
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(limit)
	}
	return data, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return tooLarge(maxErr.Limit)
	}
	return transport.NewHTTPError(http.StatusBadRequest, err.Error(), false, nil)
}

func tooLarge(limit int64) error {
	return transport.NewHTTPError(http.StatusRequestEntityTooLarge,
		"Request body larger than "+humanize.IBytes(uint64(limit)), false, nil)
}

// write sends resp, gzipped if the client accepts it, and returns the number
// of body bytes before compression.
func (a *Adapter) write(w http.ResponseWriter, resp *transport.HTTPResponse,
	acceptGzip bool) int {

	resp.Headers.Range(func(name, value string) bool {
		w.Header().Set(name, value)
		return true
	})

	if resp.Chunked() {
		w.Header().Del(transport.HeaderContentLength)
		w.WriteHeader(resp.StatusCode)
		return writeChunks(w, resp.BodyChunks)
	}

	var out io.Writer = w

	// If the receiver accepts gzip, then we would update the writer
	// and send gzipped content instead.
	if acceptGzip && resp.CompleteBody != "" {
		w.Header().Del(transport.HeaderContentLength)
		w.Header().Set(transport.HeaderContentEncoding, "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gzw := gzip.NewWriter(w)
		defer gzw.Close()
		out = gzw
	}

	w.WriteHeader(resp.StatusCode)
	n, err := io.WriteString(out, resp.CompleteBody)
	if err != nil {
		a.logger.Errorf("While writing response: %v", err)
	}
	return n
}

// writeChunks streams chunks, flushing after each one. If the client goes
// away the rest of the stream is drained so its producer can finish.
func writeChunks(w http.ResponseWriter, chunks <-chan []byte) int {
	flusher, _ := w.(http.Flusher)
	total := 0
	for chunk := range chunks {
		n, err := w.Write(chunk)
		total += n
		if err != nil {
			go func() {
				for range chunks {
				}
			}()
			return total
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return total
}
