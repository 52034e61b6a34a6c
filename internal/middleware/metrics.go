package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures by command name. Incremented by
// the cache package's client hook.
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chronicle_redis_errors_total",
		Help: "Total number of Redis command errors",
	},
	[]string{"command"},
)

// ActivationEmails counts activation emails by outcome ("sent" or "failed").
var ActivationEmails = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chronicle_activation_emails_total",
		Help: "Total number of activation emails attempted, by outcome",
	},
	[]string{"outcome"},
)

// ActiveWebSockets tracks the number of currently open feed connections.
var ActiveWebSockets = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "chronicle_active_websockets",
		Help: "Number of currently connected WebSocket clients",
	},
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request instrumentation handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
