package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusFunc reports a JSON-serializable snapshot of the running session.
type StatusFunc func() any

var startedAt = time.Now()

// NewRouter builds the local status surface: /health, /status and /metrics.
func NewRouter(node string, status StatusFunc) *gin.Engine {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(Logger("http")))
	r.Use(RequestMetricsMiddleware(node))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": node,
		})
	})
	r.GET("/status", func(c *gin.Context) {
		if status == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no session"})
			return
		}
		c.JSON(http.StatusOK, status())
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Serve runs the status surface on addr until ctx is cancelled.
func Serve(ctx context.Context, addr, node string, status StatusFunc) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(node, status),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger := Logger("http")
	logger.Info().Str("addr", addr).Msg("status server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
