package httppresentation

import (
	"time"

	domcart "github.com/Zhima-Mochi/minimarket/internal/domain/cart"
	domainOrder "github.com/Zhima-Mochi/minimarket/internal/domain/order"
	"github.com/shopspring/decimal"
)

type cartResponse struct {
	UserID string             `json:"user_id"`
	Items  []cartItemResponse `json:"items"`
}

type cartItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func toCartResponse(c *domcart.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, cartItemResponse{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return cartResponse{UserID: c.UserID, Items: items}
}

type orderItemResponse struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	ItemTotal       decimal.Decimal `json:"item_total"`
}

type orderResponse struct {
	OrderID         string              `json:"order_id"`
	UserID          string              `json:"user_id"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	Items           []orderItemResponse `json:"items"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	ShippingFee     decimal.Decimal     `json:"shipping_fee"`
	FinalAmount     decimal.Decimal     `json:"final_amount"`
	ShippingAddress domainOrder.Address `json:"shipping_address"`
	BillingAddress  domainOrder.Address `json:"billing_address"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	CouponCode      string              `json:"coupon_code,omitempty"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			ItemTotal:       item.ItemTotal,
		})
	}
	return orderResponse{
		OrderID:         o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Items:           items,
		TotalAmount:     o.TotalAmount,
		DiscountAmount:  o.DiscountAmount,
		ShippingFee:     o.ShippingFee,
		FinalAmount:     o.FinalAmount,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		CouponCode:      o.CouponCode,
		TrackingNumber:  o.TrackingNumber,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
