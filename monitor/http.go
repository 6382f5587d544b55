package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// NewServeMux routes /metrics and /moves. Either can be nil to leave its routes out
func NewServeMux(metrics *Metrics, history *History) *http.ServeMux {
	mux := http.NewServeMux()
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	if history != nil {
		h := history.Handler()
		mux.Handle("/moves", h)
		mux.Handle("/moves/", h)
	}
	return mux
}

// Serve exposes the metrics and move history on addr until the context is done
func Serve(ctx context.Context, addr string, metrics *Metrics, history *History) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           NewServeMux(metrics, history),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("serving metrics and move history")
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
