package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/browser"
	"github.com/sells-group/prospect-cli/internal/collect"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/validate"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collection server with live progress streaming",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		validator, err := newValidator()
		if err != nil {
			return err
		}
		engine := browser.NewEngine(cfg.Browser)

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		r.Post("/api/collect", func(w http.ResponseWriter, req *http.Request) {
			handleCollect(w, req, engine, validator)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
			// Request contexts descend from the signal context, so open
			// streams cancel their runs on shutdown.
			BaseContext: func(net.Listener) context.Context { return ctx },
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return srv.Close()
			}
			return nil
		})

		return g.Wait()
	},
}

// handleCollect runs one collection and streams progress to the client as
// server-sent events. Closing the connection cancels the run.
func handleCollect(w http.ResponseWriter, r *http.Request, engine collect.Engine, validator *validate.Validator) {
	var req model.CollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	emitter := newSSEEmitter()
	collector := collect.New(engine, &cfg.Collect, cfg.Validate.Country, validator, emitter)

	type runOutcome struct {
		result *model.Result
		err    error
	}
	outcome := make(chan runOutcome, 1)
	go func() {
		result, err := collector.Run(ctx, req)
		outcome <- runOutcome{result: result, err: err}
	}()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("client disconnected, canceling run")
			return
		case ev := <-emitter.events:
			writeSSE(w, flusher, ev)
		case out := <-outcome:
			emitter.drain(w, flusher)
			if out.err != nil {
				zap.L().Error("collection failed", zap.Error(out.err))
				writeSSE(w, flusher, sseEvent{name: "error", data: map[string]string{"error": out.err.Error()}})
				return
			}
			writeSSE(w, flusher, sseEvent{name: "complete", data: out.result})
			return
		}
	}
}

type sseEvent struct {
	name string
	data any
}

// sseEmitter buffers progress events for the streaming loop. When the buffer
// is full events are dropped rather than blocking the collection.
type sseEmitter struct {
	events chan sseEvent
}

func newSSEEmitter() *sseEmitter {
	return &sseEmitter{events: make(chan sseEvent, 64)}
}

func (e *sseEmitter) Log(level, message string) {
	e.offer(sseEvent{name: "log", data: map[string]string{"level": level, "message": message}})
}

func (e *sseEmitter) Progress(found, target int) {
	e.offer(sseEvent{name: "progress", data: map[string]int{"found": found, "target": target}})
}

func (e *sseEmitter) offer(ev sseEvent) {
	select {
	case e.events <- ev:
	default:
	}
}

// drain flushes any events still buffered when the run finishes, so the log
// stays ordered ahead of the terminal event.
func (e *sseEmitter) drain(w http.ResponseWriter, flusher http.Flusher) {
	for {
		select {
		case ev := <-e.events:
			writeSSE(w, flusher, ev)
		default:
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev sseEvent) {
	payload, err := json.Marshal(ev.data)
	if err != nil {
		zap.L().Warn("marshal sse event", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, payload)
	flusher.Flush()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
