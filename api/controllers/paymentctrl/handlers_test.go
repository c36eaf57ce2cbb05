package paymentctrl

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/orders"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/payments/esewa"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/config"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/metrics"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/pagination"

	"github.com/google/uuid"
)

const testSecret = "8gBm/:&EnhH.1/q"

type fakeOrderService struct {
	mu         sync.Mutex
	settled    []string
	failed     []string
	settleErr  error
	failureErr error
}

func (f *fakeOrderService) Create(context.Context, orders.CreateParams) (*orders.CreateResult, error) {
	return nil, apperrors.New(apperrors.CodeInternal, "not implemented")
}

func (f *fakeOrderService) SettleByTransaction(_ context.Context, transactionUUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settleErr != nil {
		return f.settleErr
	}
	f.settled = append(f.settled, transactionUUID)
	return nil
}

func (f *fakeOrderService) FailByTransaction(_ context.Context, transactionUUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failureErr != nil {
		return f.failureErr
	}
	f.failed = append(f.failed, transactionUUID)
	return nil
}

func (f *fakeOrderService) Get(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
}

func (f *fakeOrderService) GetForUser(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
}

func (f *fakeOrderService) ListForUser(context.Context, uuid.UUID, pagination.Params) ([]models.Order, pagination.Meta, error) {
	return nil, pagination.Meta{}, nil
}

func (f *fakeOrderService) List(context.Context, orders.ListFilter) ([]models.Order, pagination.Meta, error) {
	return nil, pagination.Meta{}, nil
}

func (f *fakeOrderService) UpdateStatus(context.Context, uuid.UUID, enums.OrderStatus) (*models.Order, error) {
	return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
}

func (f *fakeOrderService) Delete(context.Context, uuid.UUID) error { return nil }

type fakeGuard struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{keys: map[string]string{}}
}

func (g *fakeGuard) Get(_ context.Context, key string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.keys[key], nil
}

func (g *fakeGuard) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.keys[key]; exists {
		return false, nil
	}
	g.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (g *fakeGuard) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (g *fakeGuard) Del(_ context.Context, keys ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, key := range keys {
		delete(g.keys, key)
	}
	return nil
}

func newTestController(t *testing.T, svc *fakeOrderService, guard *fakeGuard) *Controller {
	t.Helper()
	gateway, err := esewa.NewClient(config.EsewaConfig{
		SecretKey:   testSecret,
		ProductCode: "EPAYTEST",
		PaymentURL:  "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
		SuccessURL:  "https://shop.example.com/payment/success",
		FailureURL:  "https://shop.example.com/payment/failure",
	})
	require.NoError(t, err)
	return NewController(svc, gateway, guard, metrics.New(), logger.New(logger.Options{Output: io.Discard}))
}

func signedCallback(t *testing.T, transactionUUID, status, secret string) string {
	t.Helper()
	data := esewa.CallbackData{
		TransactionCode:  "000ABC",
		Status:           status,
		TotalAmount:      "1650.00",
		TransactionUUID:  transactionUUID,
		ProductCode:      "EPAYTEST",
		SignedFieldNames: "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names",
	}
	message := fmt.Sprintf(
		"transaction_code=%s,status=%s,total_amount=%s,transaction_uuid=%s,product_code=%s,signed_field_names=%s",
		data.TransactionCode, data.Status, data.TotalAmount, data.TransactionUUID, data.ProductCode, data.SignedFieldNames,
	)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	data.Signature = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func callSuccess(ctrl *Controller, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/payments/esewa/success?data="+url.QueryEscape(payload), nil)
	rec := httptest.NewRecorder()
	ctrl.Success(rec, req)
	return rec
}

func TestSuccessSettlesVerifiedCallback(t *testing.T) {
	svc := &fakeOrderService{}
	ctrl := newTestController(t, svc, newFakeGuard())
	txnUUID := uuid.NewString()

	rec := callSuccess(ctrl, signedCallback(t, txnUUID, "COMPLETE", testSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.settled, 1)
	assert.Equal(t, txnUUID, svc.settled[0])
}

func TestSuccessRejectsTamperedSignature(t *testing.T) {
	svc := &fakeOrderService{}
	ctrl := newTestController(t, svc, newFakeGuard())

	rec := callSuccess(ctrl, signedCallback(t, uuid.NewString(), "COMPLETE", "wrong-secret"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.settled, "unverified callbacks never reach settlement")
}

func TestSuccessRejectsIncompleteStatus(t *testing.T) {
	svc := &fakeOrderService{}
	ctrl := newTestController(t, svc, newFakeGuard())

	rec := callSuccess(ctrl, signedCallback(t, uuid.NewString(), "PENDING", testSecret))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.settled)
}

func TestSuccessRejectsGarbagePayload(t *testing.T) {
	svc := &fakeOrderService{}
	ctrl := newTestController(t, svc, newFakeGuard())

	rec := callSuccess(ctrl, "not-base64!!!")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.settled)
}

func TestSuccessReplayShortCircuits(t *testing.T) {
	svc := &fakeOrderService{}
	ctrl := newTestController(t, svc, newFakeGuard())
	payload := signedCallback(t, uuid.NewString(), "COMPLETE", testSecret)

	first := callSuccess(ctrl, payload)
	second := callSuccess(ctrl, payload)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, svc.settled, 1, "replayed callback never hits the service")
	assert.Contains(t, second.Body.String(), "already settled")
}

func TestSuccessReleasesGuardOnSettlementError(t *testing.T) {
	svc := &fakeOrderService{settleErr: apperrors.New(apperrors.CodeStateConflict, "order is not awaiting payment")}
	guard := newFakeGuard()
	ctrl := newTestController(t, svc, guard)
	payload := signedCallback(t, uuid.NewString(), "COMPLETE", testSecret)

	rec := callSuccess(ctrl, payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The key was released, so a retry reaches the service again.
	svc.settleErr = nil
	rec = callSuccess(ctrl, payload)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.settled, 1)
}

func TestFailureCancelsOrder(t *testing.T) {
	svc := &fakeOrderService{}
	ctrl := newTestController(t, svc, newFakeGuard())
	txnUUID := uuid.NewString()

	req := httptest.NewRequest("GET", "/payments/esewa/failure?transaction_uuid="+txnUUID, nil)
	rec := httptest.NewRecorder()
	ctrl.Failure(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.failed, 1)
	assert.Equal(t, txnUUID, svc.failed[0])
}

func TestFailureRequiresTransactionUUID(t *testing.T) {
	svc := &fakeOrderService{}
	ctrl := newTestController(t, svc, newFakeGuard())

	req := httptest.NewRequest("GET", "/payments/esewa/failure", nil)
	rec := httptest.NewRecorder()
	ctrl.Failure(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.failed)
}
