// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Command coapattr decodes captured CoAP messages into option attributes,
// and encodes attribute files into CoAP options.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/absmach/coapattr/examples/simple"
	"github.com/absmach/coapattr/pkg/codec"
	"github.com/absmach/coapattr/pkg/config"
	"github.com/absmach/coapattr/pkg/discovery"
	"github.com/absmach/coapattr/pkg/handler"
	"github.com/absmach/coapattr/pkg/health"
	"github.com/absmach/coapattr/pkg/metrics"
	"github.com/absmach/coapattr/pkg/option"
	"github.com/absmach/coapattr/pkg/parser"
	"github.com/absmach/coapattr/pkg/parser/coap"
	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type flags struct {
	hex       bool
	direction string
	endpoint  string
	encode    string
}

func main() {
	var f flags
	fs := pflag.NewFlagSet("coapattr", pflag.ExitOnError)
	fs.BoolVar(&f.hex, "hex", false, "input files hold hex text instead of raw datagrams")
	fs.StringVarP(&f.direction, "direction", "d", "upstream", "message direction: upstream or downstream")
	fs.StringVarP(&f.endpoint, "endpoint", "e", "", "endpoint name used to compare discovery results across runs")
	fs.StringVar(&f.encode, "encode", "", "YAML attribute file to encode into options")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: coapattr [flags] [FILE...]\n\nReads standard input when no files are given.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	// .env file is optional
	_ = godotenv.Load()
	cfg, err := config.Load(env.Options{Prefix: config.EnvPrefix})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %s\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %s\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return StopSignalHandler(ctx, cancel, logger)
	})
	g.Go(func() error {
		defer cancel()
		return run(ctx, g, cfg, f, fs.Args(), logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("coapattr terminated with error: %s", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, g *errgroup.Group, cfg config.Config, f flags, files []string, logger *slog.Logger) error {
	registry, err := config.LoadRegistry(cfg.OptionsFile)
	if err != nil {
		return err
	}
	m := metrics.New("", prometheus.DefaultRegisterer)

	if f.encode != "" {
		return encode(codec.New(codec.Config{Registry: registry, Metrics: m}), f.encode, os.Stdout)
	}

	dir, ok := parser.ParseDirection(f.direction)
	if !ok {
		return fmt.Errorf("unknown direction %q", f.direction)
	}

	store, err := discovery.OpenStore(cfg.SnapshotDir)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	if cfg.MetricsAddr != "" {
		checker := health.NewChecker(health.DefaultTTL)
		checker.Register("snapshot_store", func(ctx context.Context) error {
			_, err := store.Endpoints()
			return err
		})
		checker.Register("option_registry", func(ctx context.Context) error {
			_, err := config.LoadRegistry(cfg.OptionsFile)
			return err
		})
		srv := newServer(cfg.MetricsAddr, checker)
		g.Go(func() error {
			return serve(ctx, srv, logger)
		})
	}

	p := coap.New(coap.Config{
		Registry: registry,
		Metrics:  m,
		Resource: cfg.Resource(),
		Strict:   cfg.StrictOptions,
		Logger:   logger,
	})
	h := simple.New(logger, simple.WithStore(store), simple.WithMetrics(m))

	if len(files) == 0 {
		files = []string{"-"}
	}
	wg, wctx := errgroup.WithContext(ctx)
	wg.SetLimit(cfg.Workers)
	for _, name := range files {
		wg.Go(func() error {
			return decodeFile(wctx, p, h, name, dir, f, logger)
		})
	}
	if err := wg.Wait(); err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		logger.Info("input processed, serving metrics until interrupted", slog.String("address", cfg.MetricsAddr))
		<-ctx.Done()
	}
	return nil
}

func decodeFile(ctx context.Context, p *coap.Parser, h handler.Handler, name string, dir parser.Direction, f flags, logger *slog.Logger) error {
	data, err := readInput(name)
	if err != nil {
		return err
	}
	if f.hex {
		if data, err = hex.DecodeString(strings.Join(strings.Fields(string(data)), "")); err != nil {
			return fmt.Errorf("%s: invalid hex input: %w", name, err)
		}
	}

	hctx := &handler.Context{
		SessionID: uuid.NewString(),
		Endpoint:  f.endpoint,
	}
	if err := p.Parse(ctx, bytes.NewReader(data), io.Discard, dir, h, hctx); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug("message decoded", slog.String("file", name), slog.String("session", hctx.SessionID))
	return nil
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// encode reads attributes from a YAML file and writes one line per encoded
// option: number, name and hex value.
func encode(c *codec.Codec, name string, w io.Writer) error {
	data, err := readInput(name)
	if err != nil {
		return err
	}
	var attrs map[string]any
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	params, err := codec.ParamsOf(attrs)
	if err != nil {
		return err
	}
	opts, err := c.EncodeParams(params)
	if err != nil {
		return err
	}
	for _, o := range opts {
		n := option.Number(o.ID)
		label := n.String()
		if d, ok := c.Registry().Lookup(n); ok {
			label = d.Name
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%x\n", n, label, o.Value); err != nil {
			return err
		}
	}
	return nil
}

func newServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/live", health.LivenessHandler())
	mux.HandleFunc("/ready", checker.ReadinessHandler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", slog.String("address", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func StopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-c:
		logger.Info("received shutdown signal")
		cancel()
		return nil
	case <-ctx.Done():
		return nil
	}
}
