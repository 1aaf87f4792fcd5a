package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/theideaiq/backend-suq/internal/common"
)

// Handler exposes liveness and readiness probes over HTTP.
type Handler struct {
	Pool         *pgxpool.Pool
	Redis        *redis.Client
	ProbeTimeout time.Duration
}

// Live reports process liveness.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes the database and redis and reports per-dependency status.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.probeTimeout())
	defer cancel()

	status := map[string]string{
		"db":    h.probeDB(ctx),
		"redis": h.probeRedis(ctx),
	}
	code := http.StatusOK
	for _, s := range status {
		if s != "ok" {
			code = http.StatusServiceUnavailable
			break
		}
	}
	common.JSON(w, code, status)
}

func (h Handler) probeDB(ctx context.Context) string {
	if h.Pool == nil {
		return "unconfigured"
	}
	if err := h.Pool.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}

func (h Handler) probeRedis(ctx context.Context) string {
	if h.Redis == nil {
		return "unconfigured"
	}
	if err := h.Redis.Ping(ctx).Err(); err != nil {
		return err.Error()
	}
	return "ok"
}

func (h Handler) probeTimeout() time.Duration {
	if h.ProbeTimeout > 0 {
		return h.ProbeTimeout
	}
	return 500 * time.Millisecond
}
