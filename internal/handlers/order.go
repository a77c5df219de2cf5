package handlers

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/foodlist/internal/middleware"
	"github.com/example/foodlist/internal/models"
	"github.com/example/foodlist/internal/services"
	"github.com/example/foodlist/internal/utils"
)

// OrderNotifier announces new orders to staff.
type OrderNotifier interface {
	NotifyNewOrder(order services.OrderNotification) error
}

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db       *gorm.DB
	notifier OrderNotifier
	logger   *slog.Logger
}

// NewOrderHandler constructs OrderHandler. notifier may be nil.
func NewOrderHandler(db *gorm.DB, notifier OrderNotifier, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{db: db, notifier: notifier, logger: logger}
}

type orderProductRequest struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

func (r orderProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, validation.By(optionalUUID)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

type createOrderRequest struct {
	OrganizationID string                `json:"organization"`
	TableNumber    int                   `json:"table_number"`
	Type           string                `json:"type"`
	ProductOrders  []orderProductRequest `json:"product_orders"`
}

func (r createOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrganizationID, validation.Required, validation.By(optionalUUID)),
		validation.Field(&r.TableNumber, validation.Required, validation.Min(1)),
		validation.Field(&r.Type, validation.In(models.OrderTypeDineIn, models.OrderTypeTakeaway)),
		validation.Field(&r.ProductOrders, validation.Required, validation.Length(1, 50)),
	)
}

// CreateOrder places an order from a table. Prices come from the menu, never the client.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Type == "" {
		req.Type = models.OrderTypeDineIn
	}
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}
	orgID := uuid.MustParse(req.OrganizationID)

	var org models.Organization
	if err := h.db.Preload("Currency").First(&org, "id = ?", orgID).Error; err != nil {
		return notFound(err, "organization not found")
	}

	var table models.Table
	if err := h.db.First(&table, "organization_id = ? AND number = ?", orgID, req.TableNumber).Error; err != nil {
		return notFound(err, "table not found for this organization")
	}

	order := models.Order{
		UserID:         user.ID,
		OrganizationID: orgID,
		TableID:        &table.ID,
		Status:         models.OrderStatusPending,
		Type:           req.Type,
	}

	products := make(map[uuid.UUID]models.Product, len(req.ProductOrders))
	for _, line := range req.ProductOrders {
		productID := uuid.MustParse(line.ProductID)
		product, seen := products[productID]
		if !seen {
			if err := h.db.First(&product, "id = ? AND organization_id = ?", productID, orgID).Error; err != nil {
				return notFound(err, "product not found: "+line.ProductID)
			}
			if !product.IsActive {
				return fiber.NewError(fiber.StatusBadRequest, "product is not available: "+product.Name)
			}
			products[productID] = product
		}
		order.ProductOrders = append(order.ProductOrders, models.ProductOrder{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}
	order.ApplyTotals(org.ServiceFee)

	if err := h.db.Create(&order).Error; err != nil {
		return err
	}
	order.Table = &table

	if h.notifier != nil {
		go h.notify(order, org, *user, products)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

func (h *OrderHandler) notify(order models.Order, org models.Organization, user models.UserProfile, products map[uuid.UUID]models.Product) {
	items := make([]services.OrderItemNotification, 0, len(order.ProductOrders))
	for _, line := range order.ProductOrders {
		items = append(items, services.OrderItemNotification{
			Name:     products[line.ProductID].Name,
			Quantity: line.Quantity,
			Price:    line.UnitPrice,
		})
	}
	currency := ""
	if org.Currency != nil {
		currency = org.Currency.Code
	}
	tableNumber := 0
	if order.Table != nil {
		tableNumber = order.Table.Number
	}

	err := h.notifier.NotifyNewOrder(services.OrderNotification{
		OrderID:      order.ID.String(),
		Organization: org.Name,
		TableNumber:  tableNumber,
		Type:         order.Type,
		Items:        items,
		Subtotal:     order.Subtotal,
		ServiceFee:   order.ServiceFee,
		TotalAmount:  order.TotalPrice,
		Currency:     currency,
		UserName:     user.FullName,
		UserPhone:    user.PhoneNumber,
	})
	if err != nil {
		h.logger.Warn("order notification failed", slog.String("order_id", order.ID.String()), slog.Any("error", err))
	}
}

// ListOrders returns the caller's orders, or for managers the orders of the
// organization given by the "organization" query.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})
	if user.IsManager() {
		if v := c.Query("organization"); v != "" {
			orgID, err := uuid.Parse(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid organization")
			}
			query = query.Where("organization_id = ?", orgID)
		}
	} else {
		query = query.Where("user_id = ?", user.ID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Table").
		Preload("ProductOrders.Product").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// GetOrder returns a single order visible to the caller.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	query := h.db.Preload("Table").Preload("ProductOrders.Product").Preload("User")
	if !user.IsManager() {
		query = query.Where("user_id = ?", user.ID)
	}

	var order models.Order
	if err := query.First(&order, "id = ?", id).Error; err != nil {
		return notFound(err, "order not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order one step along pending, prepared, delivered.
// An empty status advances to the next one.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var order models.Order
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, &order, id); err != nil {
			return notFound(err, "order not found")
		}
		next := models.NextOrderStatus(order.Status)
		if next == "" {
			return fiber.NewError(fiber.StatusConflict, "order is already "+order.Status)
		}
		if req.Status != "" && req.Status != next {
			return fiber.NewError(fiber.StatusConflict, "order in status "+order.Status+" can only move to "+next)
		}
		order.Status = next
		return tx.Model(&order).Update("status", next).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

func lockOrder(tx *gorm.DB, order *models.Order, id uuid.UUID) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(order, "id = ?", id).Error
}
