package paymentctrl

import (
	"net/http"
	"time"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/orders"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/payments/esewa"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/metrics"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/redis"
)

const (
	successScope   = "esewa-success"
	replayGuardTTL = 48 * time.Hour
)

// Controller handles the gateway's redirect callbacks. The success leg is
// signed and verified; the failure leg carries only a transaction id, so it
// can cancel an order but never mark one paid.
type Controller struct {
	svc     orders.Service
	gateway *esewa.Client
	guard   redis.IdempotencyStore
	metrics *metrics.Metrics
	logg    *logger.Logger
}

func NewController(
	svc orders.Service,
	gateway *esewa.Client,
	guard redis.IdempotencyStore,
	m *metrics.Metrics,
	logg *logger.Logger,
) *Controller {
	return &Controller{svc: svc, gateway: gateway, guard: guard, metrics: m, logg: logg}
}

func (c *Controller) Success(w http.ResponseWriter, r *http.Request) {
	data, err := esewa.DecodeCallback(r.URL.Query().Get("data"))
	if err != nil {
		c.reject(w, r, "success", "decode_error", err)
		return
	}
	if err := c.gateway.VerifyCallback(data); err != nil {
		c.reject(w, r, "success", "signature_mismatch", err)
		return
	}
	if data.Status != esewa.StatusComplete {
		c.reject(w, r, "success", "incomplete_status",
			apperrors.New(apperrors.CodeValidation, "payment status is not complete"))
		return
	}

	// Cheap replay filter in front of the database transition. The DB CAS
	// remains the authority; a lost redis key only costs one extra no-op.
	if c.guard != nil {
		key := c.guard.IdempotencyKey(successScope, data.TransactionUUID)
		won, err := c.guard.SetNX(r.Context(), key, "1", replayGuardTTL)
		if err == nil && !won {
			c.metrics.PaymentCallbacksTotal.WithLabelValues("success", "replay").Inc()
			responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "already settled"})
			return
		}
		if settleErr := c.svc.SettleByTransaction(r.Context(), data.TransactionUUID, data.TransactionCode); settleErr != nil {
			if err == nil && won {
				_ = c.guard.Del(r.Context(), key)
			}
			c.reject(w, r, "success", "settlement_error", settleErr)
			return
		}
	} else if err := c.svc.SettleByTransaction(r.Context(), data.TransactionUUID, data.TransactionCode); err != nil {
		c.reject(w, r, "success", "settlement_error", err)
		return
	}

	c.metrics.PaymentCallbacksTotal.WithLabelValues("success", "settled").Inc()
	responses.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":           "settled",
		"transaction_uuid": data.TransactionUUID,
	})
}

func (c *Controller) Failure(w http.ResponseWriter, r *http.Request) {
	transactionUUID := r.URL.Query().Get("transaction_uuid")
	if transactionUUID == "" {
		c.reject(w, r, "failure", "missing_transaction",
			apperrors.New(apperrors.CodeValidation, "transaction_uuid is required"))
		return
	}
	if err := c.svc.FailByTransaction(r.Context(), transactionUUID); err != nil {
		c.reject(w, r, "failure", "error", err)
		return
	}
	c.metrics.PaymentCallbacksTotal.WithLabelValues("failure", "cancelled").Inc()
	responses.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":           "cancelled",
		"transaction_uuid": transactionUUID,
	})
}

func (c *Controller) reject(w http.ResponseWriter, r *http.Request, leg, outcome string, err error) {
	c.metrics.PaymentCallbacksTotal.WithLabelValues(leg, outcome).Inc()
	responses.WriteError(r.Context(), w, c.logg, err)
}
