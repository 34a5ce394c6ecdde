// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metricsserver runs the small HTTP service behind
// "dbc-tool serve": a rate-limited /diff endpoint that parses and
// compares two uploaded DBC documents, a /serialize endpoint that
// parses one and renders it back to canonical DBC text, and a /metrics
// endpoint exposing prometheus counters/histograms for the parses,
// comparisons and serializations the process has performed.
package metricsserver

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ClusterCockpit/cc-dbc/pkg/dbc"
	"github.com/ClusterCockpit/cc-dbc/pkg/log"
)

// Metrics are the prometheus instruments this process updates. They are
// package-level, like the teacher's own counters, because there is only
// ever one process-wide metrics registry.
var (
	ParsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbc_parses_total",
		Help: "Number of DBC source documents parsed, by outcome.",
	}, []string{"outcome"})

	DiffsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbc_diffs_total",
		Help: "Number of bus comparisons performed, by outcome.",
	}, []string{"outcome"})

	SerializeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbc_serialize_duration_seconds",
		Help:    "Time spent rendering a Bus back to DBC text.",
		Buckets: prometheus.DefBuckets,
	})
)

// Server is the metrics/diff HTTP service.
type Server struct {
	addr    string
	limiter *rate.Limiter
	router  *mux.Router
}

// New builds a Server listening on addr, accepting at most ratePerSecond
// diff requests per second (burst of one more than that).
func New(addr string, ratePerSecond float64) *Server {
	s := &Server{
		addr:    addr,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)+1),
		router:  mux.NewRouter(),
	}
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/diff", s.handleDiff).Methods(http.MethodPost)
	s.router.HandleFunc("/serialize", s.handleSerialize).Methods(http.MethodPost)
	return s
}

// handleDiff parses two DBC documents from the "left" and "right" form
// fields and writes the textual diff, or a 400 on a parse/build error.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	left, err := readFormFile(r, "left")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	right, err := readFormFile(r, "right")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	leftBus, err := dbc.Parse(left)
	if err != nil {
		ParsesTotal.WithLabelValues("error").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ParsesTotal.WithLabelValues("ok").Inc()

	rightBus, err := dbc.Parse(right)
	if err != nil {
		ParsesTotal.WithLabelValues("error").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ParsesTotal.WithLabelValues("ok").Inc()

	diff := leftBus.Diff(rightBus)
	if diff == "" {
		DiffsTotal.WithLabelValues("equal").Inc()
	} else {
		DiffsTotal.WithLabelValues("different").Inc()
	}
	io.WriteString(w, diff)
}

// handleSerialize parses the "source" form field and writes back its
// canonical re-rendering, timing the render with SerializeDuration —
// useful for confirming a hand-edited file round-trips cleanly before
// it is pushed to the archive.
func (s *Server) handleSerialize(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	source, err := readFormFile(r, "source")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bus, err := dbc.Parse(source)
	if err != nil {
		ParsesTotal.WithLabelValues("error").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ParsesTotal.WithLabelValues("ok").Inc()

	start := time.Now()
	rendered := bus.DBC()
	SerializeDuration.Observe(time.Since(start).Seconds())

	io.WriteString(w, rendered)
}

func readFormFile(r *http.Request, field string) (string, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ListenAndServe runs the server with the teacher's access-log,
// compression and panic-recovery middleware stack, blocking until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.router.Use(handlers.CompressHandler)
	s.router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))

	accessLog := handlers.CustomLoggingHandler(io.Discard, s.router, func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Infof("%s %s %d %dB", params.Request.Method, params.URL.RequestURI(), params.StatusCode, params.Size)
	})

	srv := &http.Server{Addr: s.addr, Handler: accessLog}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
