package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// HealthHandler serves the liveness and readiness probes. Liveness only says
// the process is up; readiness runs every dependency probe and reports each
// one, so a single call shows which backing service is down.
type HealthHandler struct {
	probes []dependencyProbe
}

type dependencyProbe struct {
	name  string
	check func(context.Context) error
}

func NewHealthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection) *HealthHandler {
	return &HealthHandler{probes: []dependencyProbe{
		{name: "postgres", check: func(ctx context.Context) error {
			return dbPool.Ping(ctx)
		}},
		{name: "redis", check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
		{name: "rabbitmq", check: func(ctx context.Context) error {
			if amqpConn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}},
	}}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for _, probe := range h.probes {
		if err := probe.check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "error"
			body[probe.name] = "unavailable"
			continue
		}
		body[probe.name] = "connected"
	}
	c.JSON(status, body)
}
