package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyTotals(t *testing.T) {
	order := Order{ProductOrders: []ProductOrder{
		{UnitPrice: 35000, Quantity: 2},
		{UnitPrice: 12500.5, Quantity: 1},
	}}

	order.ApplyTotals(10)

	assert.Equal(t, 70000.0, order.ProductOrders[0].LineTotal)
	assert.Equal(t, 12500.5, order.ProductOrders[1].LineTotal)
	assert.Equal(t, 82500.5, order.Subtotal)
	assert.Equal(t, 8250.05, order.ServiceFee)
	assert.Equal(t, 90750.55, order.TotalPrice)
}

func TestApplyTotalsWithoutFee(t *testing.T) {
	order := Order{ProductOrders: []ProductOrder{{UnitPrice: 0.1, Quantity: 3}}}

	order.ApplyTotals(0)

	assert.Equal(t, 0.3, order.Subtotal)
	assert.Equal(t, 0.0, order.ServiceFee)
	assert.Equal(t, 0.3, order.TotalPrice)
}

func TestNextOrderStatus(t *testing.T) {
	assert.Equal(t, OrderStatusPrepared, NextOrderStatus(OrderStatusPending))
	assert.Equal(t, OrderStatusDelivered, NextOrderStatus(OrderStatusPrepared))
	assert.Equal(t, "", NextOrderStatus(OrderStatusDelivered))
	assert.Equal(t, "", NextOrderStatus("cancelled"))
}
