/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	otrace "go.opencensus.io/trace"
	"golang.org/x/sync/errgroup"

	"github.com/hypermodeinc/gqlhttp/graphql/schema"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
	"github.com/hypermodeinc/gqlhttp/graphql/web"
	"github.com/hypermodeinc/gqlhttp/x"
)

// Serve is the sub-command invoked when running "gqlhttp serve".
var Serve x.SubCommand

const (
	defaultPort        = 8080
	defaultMaxBodySize = "10MiB"
)

func init() {
	Serve.Cmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL HTTP server",
		Long: `
Serve runs an HTTP server with the GraphQL endpoint at /graphql, Prometheus
metrics at /metrics and a health check at /health.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		Annotations: map[string]string{"group": "core"},
	}
	Serve.EnvPrefix = "GQLHTTP"
	Serve.Cmd.SetHelpTemplate(x.NonRootTemplate)

	// If you change any of the flags below, you must also update run() to call Serve.Conf.Get
	// with the flag name so that the values are picked up by Cobra/Viper's various config inputs
	// (e.g, config file, env vars, cli flags, etc.)
	flag := Serve.Cmd.Flags()
	flag.IntP("port", "p", defaultPort, "Port to serve GraphQL on.")
	flag.String("env", "development",
		"Runtime environment. Errors carry stack traces unless this is production or test.")
	flag.Bool("debug", false, "Turn stack traces in errors on or off, whatever --env says.")
	flag.String("max_body_size", defaultMaxBodySize,
		"Largest request body accepted, before and after decompression.")
	flag.Duration("cache_max_age", 0,
		"max-age sent in cache-control for successful queries. 0 disables caching.")
	flag.Duration("shutdown_timeout", 10*time.Second,
		"How long to wait for requests in flight on shutdown.")
	flag.Bool("log_json", false, "Log JSON with zap instead of glog.")
	flag.Float64("trace", 0.0, "The ratio of requests to trace.")
}

type config struct {
	addr            string
	env             string
	debug           *bool
	maxBodySize     uint64
	cacheMaxAge     time.Duration
	shutdownTimeout time.Duration
	logJSON         bool
	traceRatio      float64
}

func readConfig() (*config, error) {
	conf := Serve.Conf
	c := &config{
		env:             conf.GetString("env"),
		cacheMaxAge:     conf.GetDuration("cache_max_age"),
		shutdownTimeout: conf.GetDuration("shutdown_timeout"),
		logJSON:         conf.GetBool("log_json"),
		traceRatio:      conf.GetFloat64("trace"),
	}

	host := "localhost"
	if conf.GetBool("bindall") {
		host = "0.0.0.0"
	}
	c.addr = fmt.Sprintf("%s:%d", host, Serve.GetIntP("port", "p", defaultPort))

	if conf.IsSet("debug") {
		debug := conf.GetBool("debug")
		c.debug = &debug
	}

	size, err := humanize.ParseBytes(Serve.GetStringP("max_body_size", "", defaultMaxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "while parsing --max_body_size")
	}
	if size == 0 {
		return nil, errors.New("--max_body_size must be positive")
	}
	c.maxBodySize = size
	return c, nil
}

func run() error {
	c, err := readConfig()
	if err != nil {
		return err
	}

	logger := x.NewLogger()
	if c.logJSON {
		if logger, err = x.NewZapLogger(nil); err != nil {
			return err
		}
		defer x.Sync(logger)
	}

	otrace.ApplyConfig(otrace.Config{
		DefaultSampler:             otrace.ProbabilitySampler(c.traceRatio),
		MaxAnnotationEventsPerSpan: 64,
	})

	executor, err := newDemoExecutor()
	if err != nil {
		return err
	}
	adapter, err := web.New(web.Options{
		Executor:     executor,
		Logger:       logger,
		Debug:        c.debug,
		Env:          c.env,
		MaxBodySize:  int64(c.maxBodySize),
		CacheControl: schema.CacheHint{MaxAge: c.cacheMaxAge},
	})
	if err != nil {
		return err
	}
	defer adapter.Close()

	metrics, err := x.NewMetricsExporter("gqlhttp")
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.addr,
		Handler:           newMux(adapter, metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// sigint : Ctrl-C, sigterm : kill command.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Serving GraphQL at http://%s/graphql (env %q, debug %v, "+
			"request bodies up to %s)", c.addr, c.env, adapter.Debug(),
			humanize.IBytes(c.maxBodySize))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "while serving on %s", c.addr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		glog.Infoln("Caught signal. Terminating now (this may take a few seconds)...")
		sctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	logger.Infof("Server shutdown. Bye!")
	return err
}

// newMux routes the endpoints served by gqlhttp.
func newMux(adapter *web.Adapter, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/graphql", adapter.HTTPHandler())
	mux.Handle("/metrics", metrics)
	mux.HandleFunc("/health", health)
	return mux
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(transport.HeaderContentType, transport.ContentTypeJSON)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": x.Version(),
	}); err != nil {
		glog.Errorf("While writing health response: %v", err)
	}
}
