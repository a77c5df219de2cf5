package models

import (
	"math"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusPrepared  = "prepared"
	OrderStatusDelivered = "delivered"
)

// Order types.
const (
	OrderTypeDineIn   = "dine_in"
	OrderTypeTakeaway = "takeaway"
)

// Order is placed by a customer from a table.
type Order struct {
	BaseModel
	UserID         uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User           *UserProfile   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index" json:"organization_id"`
	TableID        *uuid.UUID     `gorm:"type:uuid" json:"table_id"`
	Table          *Table         `json:"table,omitempty"`
	Status         string         `gorm:"size:16;default:pending" json:"status"`
	Type           string         `gorm:"size:16" json:"type"`
	Subtotal       float64        `json:"subtotal"`
	ServiceFee     float64        `json:"service_fee"`
	TotalPrice     float64        `json:"total_price"`
	ProductOrders  []ProductOrder `json:"product_orders,omitempty"`
}

// ProductOrder is one line of an order.
type ProductOrder struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	LineTotal float64   `json:"line_total"`
}

// NextOrderStatus returns the status an order moves to from current, or ""
// when current is terminal or unknown.
func NextOrderStatus(current string) string {
	switch current {
	case OrderStatusPending:
		return OrderStatusPrepared
	case OrderStatusPrepared:
		return OrderStatusDelivered
	default:
		return ""
	}
}

// ApplyTotals prices every line at its unit price and sets the order's
// subtotal, service fee (feePercent of the subtotal) and total, rounded to
// two decimals.
func (o *Order) ApplyTotals(feePercent float64) {
	var subtotal float64
	for i := range o.ProductOrders {
		line := &o.ProductOrders[i]
		line.LineTotal = roundMoney(line.UnitPrice * float64(line.Quantity))
		subtotal += line.LineTotal
	}
	o.Subtotal = roundMoney(subtotal)
	o.ServiceFee = roundMoney(o.Subtotal * feePercent / 100)
	o.TotalPrice = roundMoney(o.Subtotal + o.ServiceFee)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
