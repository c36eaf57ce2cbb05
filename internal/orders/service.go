package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/cart"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/catalog"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/coupons"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/payments/esewa"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/config"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/metrics"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/pagination"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/types"
)

// CreateParams captures a checkout request.
type CreateParams struct {
	UserID   uuid.UUID
	Method   enums.PaymentMethod
	Shipping types.ShippingInfo
}

// CreateResult returns the new order plus, for gateway payments, the signed
// form the client must POST to the hosted payment page.
type CreateResult struct {
	Order       *models.Order
	PaymentForm *esewa.PaymentForm
}

// Valid admin-driven status moves. Settlement owns the Pending to
// Processing transition for gateway orders; cash orders are created
// already Processing.
var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusDispatched, enums.OrderStatusCancelled},
	enums.OrderStatusDispatched: {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {},
	enums.OrderStatusCancelled:  {},
}

// Legacy statuses still arrive from older admin clients; they map onto the
// current lifecycle before transition checks run.
var legacyStatusAliases = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusNotProcessed:   enums.OrderStatusPending,
	enums.OrderStatusCashOnDelivery: enums.OrderStatusProcessing,
}

// Service implements checkout, payment settlement and order administration.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*CreateResult, error)

	// SettleByTransaction finalizes a paid order exactly once: stock is
	// decremented, the coupon is consumed and the cart cleared. Re-delivery
	// of the same callback is a no-op success.
	SettleByTransaction(ctx context.Context, transactionUUID, gatewayRef string) error

	// FailByTransaction cancels an order whose payment leg failed.
	FailByTransaction(ctx context.Context, transactionUUID string) error

	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, pagination.Meta, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, pagination.Meta, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	orders   Repository
	carts    cart.Repository
	coupons  coupons.Repository
	catalog  catalog.Service
	client   *db.Client
	gateway  *esewa.Client
	checkout config.CheckoutConfig
	metrics  *metrics.Metrics
	logg     *logger.Logger
}

func NewService(
	orderRepo Repository,
	cartRepo cart.Repository,
	couponRepo coupons.Repository,
	catalogSvc catalog.Service,
	client *db.Client,
	gateway *esewa.Client,
	checkout config.CheckoutConfig,
	m *metrics.Metrics,
	logg *logger.Logger,
) (Service, error) {
	if orderRepo == nil {
		return nil, errors.New("order repository is required")
	}
	if cartRepo == nil {
		return nil, errors.New("cart repository is required")
	}
	if couponRepo == nil {
		return nil, errors.New("coupon repository is required")
	}
	if catalogSvc == nil {
		return nil, errors.New("catalog service is required")
	}
	if client == nil {
		return nil, errors.New("db client is required")
	}
	if gateway == nil {
		return nil, errors.New("payment gateway client is required")
	}
	if m == nil {
		return nil, errors.New("metrics are required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{
		orders:   orderRepo,
		carts:    cartRepo,
		coupons:  couponRepo,
		catalog:  catalogSvc,
		client:   client,
		gateway:  gateway,
		checkout: checkout,
		metrics:  m,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if !params.Method.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown payment method")
	}
	if missing := params.Shipping.MissingFields(); len(missing) > 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "shipping information is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}

	userCart, err := s.carts.FindByUserID(ctx, params.UserID)
	if err != nil {
		if appErr := apperrors.As(err); appErr != nil && appErr.Code() == apperrors.CodeNotFound {
			return nil, apperrors.New(apperrors.CodeValidation, "cart is empty")
		}
		return nil, err
	}
	if len(userCart.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cart is empty")
	}

	subtotal := userCart.CartTotal
	totalAfterDiscount := subtotal
	couponID := userCart.CouponID
	if userCart.TotalAfterDiscount != nil {
		coupon, err := s.cartCoupon(ctx, couponID)
		if err != nil {
			return nil, err
		}
		if coupon != nil {
			totalAfterDiscount = *userCart.TotalAfterDiscount
		} else {
			// The discount snapshot went stale since ApplyCoupon: the coupon
			// expired or another settlement consumed it. Charge the full total.
			couponID = nil
			s.logg.Warn(ctx, "cart discount no longer backed by a valid coupon")
		}
	}
	deliveryCharge, err := s.checkout.DeliveryChargeAmount()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "reading delivery charge")
	}
	totalWithDelivery := totalAfterDiscount.Add(deliveryCharge).Round(2)

	lines, stockLines, err := s.snapshotLines(ctx, userCart.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:             params.UserID,
		Status:             enums.OrderStatusPending,
		CouponID:           couponID,
		Subtotal:           subtotal,
		TotalAfterDiscount: totalAfterDiscount,
		DeliveryCharge:     deliveryCharge,
		TotalWithDelivery:  totalWithDelivery,
		Shipping:           params.Shipping,
		Items:              lines,
		PaymentIntent: &models.PaymentIntent{
			TransactionUUID: uuid.NewString(),
			Method:          params.Method,
			Amount:          totalWithDelivery,
			Currency:        s.checkout.Currency,
		},
	}

	switch params.Method {
	case enums.PaymentMethodCOD:
		// Cash orders settle right away, so they skip Pending entirely. The
		// failure redirect can then never cancel a stock-settled cash order.
		order.Status = enums.OrderStatusProcessing
		order.PaymentIntent.Status = enums.PaymentStatusCashOnDelivery
		err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
			txOrders := s.orders.WithTx(tx)
			if err := txOrders.Create(ctx, order); err != nil {
				return err
			}
			if err := s.catalog.SettleStock(ctx, tx, stockLines); err != nil {
				return err
			}
			if err := s.consumeCoupon(ctx, tx, order.CouponID); err != nil {
				return err
			}
			return s.carts.WithTx(tx).DeleteByUserID(ctx, params.UserID)
		})
		if err != nil {
			return nil, err
		}
		s.metrics.OrdersCreatedTotal.WithLabelValues(params.Method.String()).Inc()
		s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "cash order placed")
		return &CreateResult{Order: order}, nil

	case enums.PaymentMethodEsewa:
		order.PaymentIntent.Status = enums.PaymentStatusPending
		err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
			return s.orders.WithTx(tx).Create(ctx, order)
		})
		if err != nil {
			return nil, err
		}
		form, err := s.gateway.BuildPaymentForm(esewa.FormParams{
			TransactionUUID: order.PaymentIntent.TransactionUUID,
			Amount:          totalAfterDiscount,
			DeliveryCharge:  deliveryCharge,
			TotalAmount:     totalWithDelivery,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDependency, err, "building payment form")
		}
		s.metrics.OrdersCreatedTotal.WithLabelValues(params.Method.String()).Inc()
		s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "gateway order placed")
		return &CreateResult{Order: order, PaymentForm: form}, nil

	default:
		return nil, apperrors.New(apperrors.CodeValidation, "unsupported payment method")
	}
}

func (s *service) SettleByTransaction(ctx context.Context, transactionUUID, gatewayRef string) error {
	if strings.TrimSpace(transactionUUID) == "" {
		return apperrors.New(apperrors.CodeValidation, "transaction uuid is required")
	}

	var result string
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)
		order, err := txOrders.FindByTransactionUUID(ctx, transactionUUID)
		if err != nil {
			return err
		}

		won, err := txOrders.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusProcessing)
		if err != nil {
			return err
		}
		if !won {
			// Someone else settled this order. Only a prior settlement is a
			// benign replay; anything else is a conflicting state.
			current, err := txOrders.FindByID(ctx, order.ID)
			if err != nil {
				return err
			}
			if current.PaymentIntent != nil && current.PaymentIntent.Status == enums.PaymentStatusPaid {
				result = "replay"
				return nil
			}
			return apperrors.New(apperrors.CodeStateConflict, "order is not awaiting payment")
		}

		stockLines := make([]catalog.StockLine, 0, len(order.Items))
		for _, item := range order.Items {
			stockLines = append(stockLines, catalog.StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		if err := s.catalog.SettleStock(ctx, tx, stockLines); err != nil {
			return err
		}
		if err := s.consumeCoupon(ctx, tx, order.CouponID); err != nil {
			return err
		}
		if err := s.carts.WithTx(tx).DeleteByUserID(ctx, order.UserID); err != nil {
			return err
		}

		ref := gatewayRef
		if err := txOrders.SetIntentStatus(ctx, order.PaymentIntent.ID, enums.PaymentStatusPaid, &ref); err != nil {
			return err
		}
		result = "settled"
		return nil
	})
	if err != nil {
		s.metrics.OrderSettlementsTotal.WithLabelValues("error").Inc()
		return err
	}
	s.metrics.OrderSettlementsTotal.WithLabelValues(result).Inc()
	s.logg.Info(s.logg.WithField(ctx, "transaction_uuid", transactionUUID), "settlement "+result)
	return nil
}

func (s *service) FailByTransaction(ctx context.Context, transactionUUID string) error {
	if strings.TrimSpace(transactionUUID) == "" {
		return apperrors.New(apperrors.CodeValidation, "transaction uuid is required")
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)
		order, err := txOrders.FindByTransactionUUID(ctx, transactionUUID)
		if err != nil {
			return err
		}
		if order.PaymentIntent != nil && order.PaymentIntent.Status == enums.PaymentStatusPaid {
			return apperrors.New(apperrors.CodeStateConflict, "order is already paid")
		}

		won, err := txOrders.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !won {
			// A repeated failure callback lands here; cancelling twice is fine.
			if order.Status == enums.OrderStatusCancelled {
				return nil
			}
			return apperrors.New(apperrors.CodeStateConflict, "order is not awaiting payment")
		}
		return txOrders.SetIntentStatus(ctx, order.PaymentIntent.ID, enums.PaymentStatusFailed, nil)
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *service) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, pagination.Meta, error) {
	orders, total, err := s.orders.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return orders, page.MetaFor(total), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, pagination.Meta, error) {
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return orders, filter.Page.MetaFor(total), nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	if !to.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown order status")
	}
	to = canonicalStatus(to)

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := canonicalStatus(order.Status)
	if from == to {
		return order, nil
	}
	if !transitionAllowed(from, to) {
		return nil, apperrors.New(apperrors.CodeStateConflict, "status transition not allowed").
			WithDetails(map[string]any{"from": from.String(), "to": to.String()})
	}

	won, err := s.orders.TransitionStatus(ctx, id, order.Status, to)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperrors.New(apperrors.CodeStateConflict, "order status changed concurrently")
	}
	return s.orders.FindByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.orders.Delete(ctx, id)
}

// snapshotLines freezes the cart into order lines and checks every product
// before anything is persisted. Shortages are collected across all lines;
// the settlement transaction re-checks stock when it actually decrements.
func (s *service) snapshotLines(ctx context.Context, items []models.CartItem) ([]models.OrderLineItem, []catalog.StockLine, error) {
	lines := make([]models.OrderLineItem, 0, len(items))
	stock := make([]catalog.StockLine, 0, len(items))
	var shortage error
	for _, item := range items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if !product.IsActive {
			return nil, nil, apperrors.New(apperrors.CodeValidation, "product is no longer available").
				WithDetails(map[string]any{"product_id": product.ID.String()})
		}
		if product.Quantity < item.Quantity {
			shortage = multierr.Append(shortage,
				apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock for "+product.Title).
					WithDetails(map[string]any{
						"product_id": product.ID.String(),
						"available":  product.Quantity,
						"requested":  item.Quantity,
					}))
			continue
		}
		lines = append(lines, models.OrderLineItem{
			ProductID: item.ProductID,
			Title:     product.Title,
			Quantity:  item.Quantity,
			Color:     item.Color,
			Price:     item.Price,
		})
		stock = append(stock, catalog.StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if shortage != nil {
		return nil, nil, shortage
	}
	return lines, stock, nil
}

// cartCoupon re-resolves the cart's coupon at checkout time. A nil coupon
// with no error means the stored discount is no longer backed by a coupon
// that is valid right now.
func (s *service) cartCoupon(ctx context.Context, couponID *uuid.UUID) (*models.Coupon, error) {
	if couponID == nil {
		return nil, nil
	}
	coupon, err := s.coupons.FindByID(ctx, *couponID)
	if err != nil {
		if appErr := apperrors.As(err); appErr != nil && appErr.Code() == apperrors.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	if err := coupons.ValidateForUse(coupon, time.Now()); err != nil {
		return nil, nil
	}
	return coupon, nil
}

// consumeCoupon deletes the order's coupon. A coupon already consumed by a
// parallel order is tolerated: the discount was priced into this order when
// the coupon was still valid.
func (s *service) consumeCoupon(ctx context.Context, tx *gorm.DB, couponID *uuid.UUID) error {
	if couponID == nil {
		return nil
	}
	consumed, err := s.coupons.WithTx(tx).Consume(ctx, *couponID)
	if err != nil {
		return err
	}
	if !consumed {
		s.logg.Warn(ctx, "coupon was already consumed")
	}
	return nil
}

func canonicalStatus(status enums.OrderStatus) enums.OrderStatus {
	if alias, ok := legacyStatusAliases[status]; ok {
		return alias
	}
	return status
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
