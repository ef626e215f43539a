package handler

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/segyhp/rental-billing/internal/service"
	customError "github.com/segyhp/rental-billing/pkg/errors"
	"github.com/segyhp/rental-billing/pkg/response"
)

type RunHandler struct {
	runner service.RunOperations
	logger logrus.FieldLogger
}

func NewRunHandler(runner service.RunOperations, logger logrus.FieldLogger) *RunHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RunHandler{runner: runner, logger: logger}
}

// Monthly triggers the monthly generation. mode=force skips the day-of-month
// gate; the default is gated.
func (h *RunHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = domain.RunModeGated
	}

	var (
		summary *domain.RunSummary
		err     error
	)
	switch mode {
	case domain.RunModeGated:
		summary, err = h.runner.RunGated(r.Context())
	case domain.RunModeForce:
		summary, err = h.runner.RunForce(r.Context())
	default:
		writeBusinessError(w, h.logger, customError.WrapInvalidRequest(fmt.Sprintf("mode must be %s or %s", domain.RunModeGated, domain.RunModeForce), nil))
		return
	}

	if err != nil {
		writeBusinessError(w, h.logger, err)
		return
	}

	response.JSONWithMessage(w, http.StatusOK, summary.Message, summary)
}
