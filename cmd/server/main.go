package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/config"
	persistlog "figurebuilder.app/internal/persistence/log"
	"figurebuilder.app/internal/protocol"
	"figurebuilder.app/internal/session"
	"figurebuilder.app/internal/traits"
	"figurebuilder.app/internal/transport/httpapi"
	"figurebuilder.app/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/server.yaml", "server config path (empty for defaults + env)")
		addr       = flag.String("addr", "", "http listen address (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	path := strings.TrimSpace(*configPath)
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.Printf("config not found (%s); using defaults", path)
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	imager, err := cfg.ImagerEndpoint()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	cat, err := catalogs.Load(cfg.CatalogDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	meta, err := openMetadata(ctx, cfg, cat, logger)
	if err != nil {
		logger.Fatalf("load metadata: %v", err)
	}
	logger.Printf("catalogs loaded: %d traits, %d hues; metadata: %d tokens (%s backend)",
		len(cat.Traits()), len(cat.Options(traits.Hues)), meta.Len(), cfg.Metadata.Backend)

	env := session.Env{
		Catalog:  cat,
		Metadata: meta,
		Imager:   imager,
		Links:    cfg.Links,
		PageSize: cfg.PageSize,
	}
	digests := protocol.CatalogDigests{
		FigurePartsDigest: cat.PartsDigest,
		TraitColorsDigest: cat.ColorsDigest,
		Metadata:          protocol.DigestRef{Digest: meta.Digest, Count: meta.Len()},
	}
	wsOpts := ws.Options{
		ReadBufferSize:  cfg.WS.ReadBufferSize,
		WriteBufferSize: cfg.WS.WriteBufferSize,
		MaxQueue:        cfg.WS.MaxQueue,
		MaxMessageBytes: cfg.WS.MaxMessageBytes,
		AllowedOrigins:  cfg.WS.AllowedOrigins,
	}
	if cfg.EventLogDir != "" {
		events := persistlog.NewEventLogger(cfg.EventLogDir)
		defer func() { _ = events.Close() }()
		wsOpts.Events = events
		logger.Printf("event log: %s", cfg.EventLogDir)
	}
	wsSrv := ws.NewServer(env, digests, logger, wsOpts)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP figurebuilder_sessions Current number of editor sessions.\n")
		fmt.Fprintf(rw, "# TYPE figurebuilder_sessions gauge\n")
		fmt.Fprintf(rw, "figurebuilder_sessions %d\n", wsSrv.Active())

		fmt.Fprintf(rw, "# HELP figurebuilder_sessions_total Editor sessions accepted since start.\n")
		fmt.Fprintf(rw, "# TYPE figurebuilder_sessions_total counter\n")
		fmt.Fprintf(rw, "figurebuilder_sessions_total %d\n", wsSrv.Total())

		fmt.Fprintf(rw, "# HELP figurebuilder_metadata_tokens Catalogued tokens.\n")
		fmt.Fprintf(rw, "# TYPE figurebuilder_metadata_tokens gauge\n")
		fmt.Fprintf(rw, "figurebuilder_metadata_tokens %d\n", meta.Len())

		fmt.Fprintf(rw, "# HELP figurebuilder_catalog_options Registered options per trait.\n")
		fmt.Fprintf(rw, "# TYPE figurebuilder_catalog_options gauge\n")
		for _, t := range cat.Traits() {
			fmt.Fprintf(rw, "figurebuilder_catalog_options{trait=%q} %d\n", t, len(cat.Options(t)))
		}
	})
	httpapi.New(env, digests).Register(mux)
	if cfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (FIGUREBUILDER_ENABLE_PPROF=false)")
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
