package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	chathandler "github.com/jakerains/Rivertown-v2-aws/internal/chat/handler"
	chatport "github.com/jakerains/Rivertown-v2-aws/internal/chat/port"
	"github.com/jakerains/Rivertown-v2-aws/internal/chat/service"
	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/observability"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract defined for the Rivertown chat widget.
func NewRouter(chatSvc *service.ChatService, sessions chatport.SessionStore, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(chatSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. 💬 Chat — the conversational surface
		// =============================================
		r.Post("/chat", chathandler.ChatHandler(chatSvc, sessions, logger))
		r.Post("/chat/reset", chathandler.ResetHandler(sessions, logger))
		r.Get("/chat/{sessionId}/history", chathandler.HistoryHandler(sessions, logger))

		// =============================================
		// 2. 📦 Orders — direct lookup (non-conversational)
		// =============================================
		r.Get("/customers/orders", ordersHandler(chatSvc, logger))

		// =============================================
		// 3. 📊 Metrics
		// =============================================
		r.Get("/metrics/assistant", assistantMetricsHandler(metrics, logger))
	})

	return r
}

// ============================================================
// Orders — GET /v1/customers/orders?firstName=&lastName=
// ============================================================

func ordersHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/orders")
		defer span.End()

		first := domain.TitleCase(r.URL.Query().Get("firstName"))
		last := domain.TitleCase(r.URL.Query().Get("lastName"))
		if first == "" || last == "" {
			writeError(w, http.StatusBadRequest, "firstName and lastName are required")
			return
		}
		span.SetAttributes(attribute.String("customer.name", first+" "+last))

		orders, found, err := chatSvc.LookupOrders(ctx, first, last)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if !found {
			handleServiceError(w, &domain.ErrNotFound{Resource: "customer", ID: first + " " + last}, logger)
			return
		}
		if orders == nil {
			orders = []domain.Order{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
	}
}

// ============================================================
// Metrics & Health
// ============================================================

func assistantMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := metrics.GetAssistantSnapshot()
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func healthzHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "rivertown-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		// Probe the order store concurrently; more probes can join the group.
		g, gctx := errgroup.WithContext(ctx)
		var ordersHealth domain.ServiceHealth
		g.Go(func() error {
			start := time.Now()
			_, _, err := chatSvc.LookupOrders(gctx, "Health", "Check")
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			ordersHealth = domain.ServiceHealth{
				Name: "dynamodb", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			}
			return nil
		})
		g.Wait()
		services = append(services, ordersHealth)

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
