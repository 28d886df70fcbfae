package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ecomstack/ecommerce-api/internal/middleware"
	"github.com/ecomstack/ecommerce-api/internal/model"
	"github.com/ecomstack/ecommerce-api/internal/repository"
	"github.com/ecomstack/ecommerce-api/internal/service"
)

// OrderHandler implements order creation, listing, status transitions and
// payments. Status changes and completed payments are the domain write
// paths that feed the notification store: the notification is recorded
// after the domain commit, best-effort, so a notification failure never
// rolls back an order.
type OrderHandler struct {
	DB        *sql.DB
	Orders    *repository.OrderRepo
	Products  *repository.ProductRepo
	Payments  *repository.PaymentRepo
	Addresses *repository.AddressRepo
	Notifier  *service.Notifier
}

func NewOrderHandler(db *sql.DB, o *repository.OrderRepo, p *repository.ProductRepo, pay *repository.PaymentRepo, a *repository.AddressRepo, n *service.Notifier) *OrderHandler {
	return &OrderHandler{DB: db, Orders: o, Products: p, Payments: pay, Addresses: a, Notifier: n}
}

// ----- DTOs -----

type orderItemReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  uint32 `json:"quantity"`
}

// maxOrderItemQuantity bounds a single line item. It keeps totals far away
// from the uint32 cents ceiling and rejects obviously bogus requests before
// any stock is touched.
const maxOrderItemQuantity = 1000

// checkOrderItems validates the request lines. It returns an empty string
// when the lines are acceptable, otherwise the error message for the 400.
func checkOrderItems(items []orderItemReq) string {
	if len(items) == 0 {
		return "items required"
	}
	for _, it := range items {
		if it.ProductID == 0 || it.Quantity == 0 {
			return "invalid item"
		}
		if it.Quantity > maxOrderItemQuantity {
			return "quantity exceeds limit"
		}
	}
	return ""
}

// sumOrderTotal adds up the line totals in 64-bit and reports false when the
// result does not fit the uint32 cents column.
func sumOrderTotal(items []model.OrderItem) (uint32, bool) {
	var total uint64
	for _, it := range items {
		total += uint64(it.UnitCents) * uint64(it.Quantity)
		if total > uint64(^uint32(0)) {
			return 0, false
		}
	}
	return uint32(total), true
}
type createOrderReq struct {
	Items     []orderItemReq `json:"items"`
	AddressID *uint64        `json:"address_id"`
}

type orderItemResp struct {
	ProductID uint64 `json:"product_id"`
	Quantity  uint32 `json:"quantity"`
	UnitCents uint32 `json:"unit_cents"`
}
type orderResp struct {
	ID         uint64          `json:"id"`
	Reference  string          `json:"reference"`
	Status     string          `json:"status"`
	TotalCents uint32          `json:"total_cents"`
	AddressID  *uint64         `json:"address_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Items      []orderItemResp `json:"items,omitempty"`
}

func toOrderResp(o model.Order, items []model.OrderItem) orderResp {
	resp := orderResp{
		ID:         o.ID,
		Reference:  o.Reference,
		Status:     o.Status,
		TotalCents: o.TotalCents,
		AddressID:  o.AddressID,
		CreatedAt:  o.CreatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID: it.ProductID, Quantity: it.Quantity, UnitCents: it.UnitCents,
		})
	}
	return resp
}

// CreateOrder handles POST /v1/orders. The order, its items and the stock
// adjustments commit in one transaction; the "order placed" notification is
// recorded after the commit.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items required"})
	}
	if msg := checkOrderItems(req.Items); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	uid := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.AddressID != nil {
		if _, err := h.Addresses.GetByID(ctx, uid, *req.AddressID); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown address"})
		}
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin failed"})
	}
	defer func() { _ = tx.Rollback() }()

	var items []model.OrderItem
	for _, it := range req.Items {
		p, err := h.Products.GetByID(ctx, it.ProductID)
		if err != nil || !p.IsActive {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown product"})
		}
		if err := h.Products.AdjustStockTx(ctx, tx, p.ID, -int32(it.Quantity)); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient stock"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stock update failed"})
		}
		items = append(items, model.OrderItem{
			ProductID: p.ID, Quantity: it.Quantity, UnitCents: p.PriceCents,
		})
	}
	total, ok := sumOrderTotal(items)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order total too large"})
	}

	order := model.Order{
		UserID:     uid,
		Reference:  uuid.NewString(),
		Status:     model.OrderPending,
		TotalCents: total,
		AddressID:  req.AddressID,
	}
	if err := h.Orders.CreateTx(ctx, tx, &order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := h.Orders.CreateItemsBulkTx(ctx, tx, items); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create items failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	oid := order.ID
	h.Notifier.Record(ctx, uid, model.NotificationOrderStatus,
		"Order placed",
		"Your order "+order.Reference+" was placed.",
		map[string]interface{}{"order_id": order.ID, "status": order.Status},
		&oid)

	return c.JSON(http.StatusCreated, toOrderResp(order, items))
}

// ListOrders handles GET /v1/orders (own orders only).
func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListByUser(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o, nil))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// loadVisible fetches an order and enforces visibility: the owner, or a
// MANAGER/ADMIN caller.
func (h *OrderHandler) loadVisible(ctx context.Context, c echo.Context) (model.Order, error) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return model.Order{}, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Order{}, echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return model.Order{}, echo.NewHTTPError(http.StatusInternalServerError, "query failed")
	}
	if err := repository.VisibleTo(order, middleware.UserID(c), middleware.Role(c)); errors.Is(err, repository.ErrForbidden) {
		return model.Order{}, echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return order, nil
}

// GetOrder handles GET /v1/orders/:id, including items and payments.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.loadVisible(ctx, c)
	if err != nil {
		return err
	}
	items, err := h.Orders.ListItems(ctx, order.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	payments, err := h.Payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	resp := toOrderResp(order, items)
	type paymentResp struct {
		Reference   string    `json:"reference"`
		Method      string    `json:"method"`
		AmountCents uint32    `json:"amount_cents"`
		Status      string    `json:"status"`
		CreatedAt   time.Time `json:"created_at"`
	}
	var pays []paymentResp
	for _, p := range payments {
		pays = append(pays, paymentResp{
			Reference: p.Reference, Method: p.Method, AmountCents: p.AmountCents,
			Status: p.Status, CreatedAt: p.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"order": resp, "payments": pays})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /v1/orders/:id/status (ADMIN or MANAGER).
// Only the transitions allowed by model.ValidOrderTransition succeed; the
// owner gets an order_status notification after the change lands.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	to := strings.ToUpper(strings.TrimSpace(req.Status))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.loadVisible(ctx, c)
	if err != nil {
		return err
	}
	if err := h.Orders.UpdateStatus(ctx, order.ID, order.Status, to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	oid := order.ID
	h.Notifier.Record(ctx, order.UserID, model.NotificationOrderStatus,
		"Order "+strings.ToLower(to),
		"Your order "+order.Reference+" is now "+to+".",
		map[string]interface{}{"order_id": order.ID, "status": to},
		&oid)

	order.Status = to
	return c.JSON(http.StatusOK, toOrderResp(order, nil))
}

type createPaymentReq struct {
	Method string `json:"method"`
}

// CreatePayment handles POST /v1/orders/:id/payments. Payment capture is
// simulated: the payment is recorded as completed for the full order total
// and the order moves to PAID. The owner gets a payment_status
// notification after the commit.
func (h *OrderHandler) CreatePayment(c echo.Context) error {
	var req createPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		method = "card"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.loadVisible(ctx, c)
	if err != nil {
		return err
	}
	if order.Status != model.OrderPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order not payable"})
	}

	payment, err := h.Payments.Create(ctx, model.Payment{
		OrderID:     order.ID,
		Reference:   uuid.NewString(),
		Method:      method,
		AmountCents: order.TotalCents,
		Status:      model.PaymentCompleted,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment failed"})
	}
	if err := h.Orders.UpdateStatus(ctx, order.ID, model.OrderPending, model.OrderPaid); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order not payable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	oid := order.ID
	h.Notifier.Record(ctx, order.UserID, model.NotificationPaymentStatus,
		"Payment received",
		"Payment for order "+order.Reference+" was completed.",
		map[string]interface{}{"order_id": order.ID, "payment_ref": payment.Reference, "amount_cents": payment.AmountCents},
		&oid)

	return c.JSON(http.StatusCreated, echo.Map{
		"reference":    payment.Reference,
		"status":       payment.Status,
		"amount_cents": payment.AmountCents,
	})
}
