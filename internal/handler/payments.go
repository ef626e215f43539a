package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/segyhp/rental-billing/internal/service"
	customError "github.com/segyhp/rental-billing/pkg/errors"
	"github.com/segyhp/rental-billing/pkg/response"
	"github.com/segyhp/rental-billing/pkg/utils"
)

type PaymentHandler struct {
	service   service.PaymentOperations
	validator *validator.Validate
	logger    logrus.FieldLogger
}

func NewPaymentHandler(svc service.PaymentOperations, logger logrus.FieldLogger) *PaymentHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PaymentHandler{
		service:   svc,
		validator: validator.New(),
		logger:    logger,
	}
}

// ForceGenerate creates the rent payment of one agreement for the month of
// the optional "date" (today when omitted).
func (h *PaymentHandler) ForceGenerate(w http.ResponseWriter, r *http.Request) {
	agreementID := mux.Vars(r)["agreementId"]

	var req domain.ForcePaymentRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		h.writeError(w, customError.WrapInvalidRequest("Invalid request body", err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.writeError(w, customError.WrapInvalidRequest("Validation failed", err))
		return
	}

	var specificDate *time.Time
	if req.Date != "" {
		d, err := utils.ParseDate(req.Date)
		if err != nil {
			h.writeError(w, customError.WrapInvalidRequest("Invalid date", err))
			return
		}
		specificDate = &d
	}

	result, err := h.service.ForceGeneratePayment(r.Context(), agreementID, specificDate)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if result.Outcome == domain.OutcomeCreated {
		response.Created(w, result.Message, result)
		return
	}
	response.JSONWithMessage(w, http.StatusOK, result.Message, result)
}

// Reconcile backfills the missing monthly payments of one agreement
func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	leaseID := mux.Vars(r)["agreementId"]

	var body domain.ReconcilePaymentsRequest
	if err := decodeOptionalJSON(r, &body); err != nil {
		h.writeError(w, customError.WrapInvalidRequest("Invalid request body", err))
		return
	}
	if err := h.validator.Struct(body); err != nil {
		h.writeError(w, customError.WrapInvalidRequest("Validation failed", err))
		return
	}

	req := domain.ReconcileRequest{RentAmount: body.RentAmount}
	if body.LastPaymentDate != "" {
		d, err := utils.ParseDate(body.LastPaymentDate)
		if err != nil {
			h.writeError(w, customError.WrapInvalidRequest("Invalid last_payment_date", err))
			return
		}
		req.LastPaymentDate = &d
	}
	if body.Through != "" {
		d, err := utils.ParseDate(body.Through)
		if err != nil {
			h.writeError(w, customError.WrapInvalidRequest("Invalid through", err))
			return
		}
		req.Through = &d
	}

	result, err := h.service.ReconcileMissingMonths(r.Context(), leaseID, req)
	if err != nil {
		if result != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"lease_id": leaseID,
				"created":  result.Created,
			}).Warn("Reconciliation stopped part way")
		}
		h.writeError(w, err)
		return
	}

	if result.Created > 0 {
		response.Created(w, result.Message, result)
		return
	}
	response.JSONWithMessage(w, http.StatusOK, result.Message, result)
}

// Schedule previews the full rent schedule of an agreement
func (h *PaymentHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	agreementID := mux.Vars(r)["agreementId"]

	entries, err := h.service.PreviewSchedule(r.Context(), agreementID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, domain.ScheduleResponse{AgreementID: agreementID, Schedule: entries})
}

// RefreshOverdue runs the overdue sweep immediately
func (h *PaymentHandler) RefreshOverdue(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.RefreshOverdue(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, domain.OverdueRefreshResponse{Updated: updated})
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, err error) {
	writeBusinessError(w, h.logger, err)
}

func writeBusinessError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		logger.WithError(err).Error("Unhandled error")
		response.InternalServerError(w, "Internal server error", err)
		return
	}

	status := statusFor(be.Code)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("code", be.Code).Error("Request failed")
	}
	response.Error(w, status, be.Code, be.Message, be.Err)
}

func statusFor(code string) int {
	switch code {
	case customError.ErrCodeAgreementNotFound:
		return http.StatusNotFound
	case customError.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case customError.ErrCodeLockBusy:
		return http.StatusConflict
	case customError.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeOptionalJSON decodes the request body into dst; an empty body leaves
// dst untouched.
func decodeOptionalJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
