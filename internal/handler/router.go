package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/rental-billing/pkg/response"
)

// NewRouter wires every HTTP route
func NewRouter(payments *PaymentHandler, runs *RunHandler, health *HealthHandler, logger logrus.FieldLogger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))

	// Health check
	if health != nil {
		router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
		router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(response.JSONMiddleware)

	api.HandleFunc("/agreements/{agreementId}/payments/force", payments.ForceGenerate).Methods(http.MethodPost)
	api.HandleFunc("/agreements/{agreementId}/payments/reconcile", payments.Reconcile).Methods(http.MethodPost)
	api.HandleFunc("/agreements/{agreementId}/schedule", payments.Schedule).Methods(http.MethodGet)
	api.HandleFunc("/runs/monthly", runs.Monthly).Methods(http.MethodPost)
	api.HandleFunc("/runs/overdue", payments.RefreshOverdue).Methods(http.MethodPost)

	return router
}
