package gormrepo

import (
	"encoding/json"
	"time"

	"github.com/Zhima-Mochi/minimarket/internal/domain/catalog"
	"github.com/Zhima-Mochi/minimarket/internal/domain/coupon"
	domorder "github.com/Zhima-Mochi/minimarket/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/minimarket/internal/domain/payment"
	"github.com/shopspring/decimal"
)

type productRecord struct {
	ProductID string          `gorm:"primaryKey;type:varchar(64)"`
	Name      string          `gorm:"not null;type:varchar(255)"`
	Price     decimal.Decimal `gorm:"not null;type:decimal(12,2)"`
	Stock     int             `gorm:"not null;check:stock >= 0"`
	Version   int64           `gorm:"not null;default:0"`
	Active    bool            `gorm:"not null;default:true"`
	Approved  bool            `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (productRecord) TableName() string { return "products" }

func (r *productRecord) toDomain() *catalog.Product {
	return &catalog.Product{
		ID:        r.ProductID,
		Name:      r.Name,
		Price:     r.Price,
		Stock:     r.Stock,
		Version:   r.Version,
		Active:    r.Active,
		Approved:  r.Approved,
		UpdatedAt: r.UpdatedAt,
	}
}

type orderRecord struct {
	OrderID         string            `gorm:"primaryKey;type:varchar(64)"`
	UserID          string            `gorm:"not null;index;type:varchar(64)"`
	Status          string            `gorm:"not null;type:varchar(32)"`
	PaymentStatus   string            `gorm:"not null;type:varchar(32)"`
	TotalAmount     decimal.Decimal   `gorm:"not null;type:decimal(12,2)"`
	DiscountAmount  decimal.Decimal   `gorm:"not null;type:decimal(12,2)"`
	ShippingFee     decimal.Decimal   `gorm:"not null;type:decimal(12,2)"`
	FinalAmount     decimal.Decimal   `gorm:"not null;type:decimal(12,2)"`
	ShippingAddress string            `gorm:"type:jsonb"`
	BillingAddress  string            `gorm:"type:jsonb"`
	PaymentMethod   string            `gorm:"type:varchar(32)"`
	CouponCode      string            `gorm:"type:varchar(64)"`
	TrackingNumber  string            `gorm:"type:varchar(128)"`
	Items           []orderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	OrderID         string          `gorm:"primaryKey;type:varchar(64)"`
	ProductID       string          `gorm:"primaryKey;type:varchar(64)"`
	ProductName     string          `gorm:"not null;type:varchar(255)"`
	Quantity        int             `gorm:"not null"`
	PriceAtPurchase decimal.Decimal `gorm:"not null;type:decimal(12,2)"`
	ItemTotal       decimal.Decimal `gorm:"not null;type:decimal(12,2)"`
}

func (orderItemRecord) TableName() string { return "order_items" }

func orderToRecord(o *domorder.Order) *orderRecord {
	items := make([]orderItemRecord, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemRecord{
			OrderID:         o.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			ItemTotal:       item.ItemTotal,
		})
	}
	return &orderRecord{
		OrderID:         o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		TotalAmount:     o.TotalAmount,
		DiscountAmount:  o.DiscountAmount,
		ShippingFee:     o.ShippingFee,
		FinalAmount:     o.FinalAmount,
		ShippingAddress: marshalAddress(o.ShippingAddress),
		BillingAddress:  marshalAddress(o.BillingAddress),
		PaymentMethod:   o.PaymentMethod,
		CouponCode:      o.CouponCode,
		TrackingNumber:  o.TrackingNumber,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (r *orderRecord) toDomain() *domorder.Order {
	items := make([]domorder.Item, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domorder.Item{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			ItemTotal:       item.ItemTotal,
		})
	}
	return &domorder.Order{
		ID:              r.OrderID,
		UserID:          r.UserID,
		Status:          domorder.Status(r.Status),
		PaymentStatus:   domorder.PaymentStatus(r.PaymentStatus),
		TotalAmount:     r.TotalAmount,
		DiscountAmount:  r.DiscountAmount,
		ShippingFee:     r.ShippingFee,
		FinalAmount:     r.FinalAmount,
		ShippingAddress: unmarshalAddress(r.ShippingAddress),
		BillingAddress:  unmarshalAddress(r.BillingAddress),
		PaymentMethod:   r.PaymentMethod,
		CouponCode:      r.CouponCode,
		TrackingNumber:  r.TrackingNumber,
		Items:           items,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func marshalAddress(a domorder.Address) string {
	raw, err := json.Marshal(a)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func unmarshalAddress(raw string) domorder.Address {
	var a domorder.Address
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &a)
	}
	return a
}

type paymentRecord struct {
	PaymentID     string          `gorm:"primaryKey;type:varchar(64)"`
	OrderID       string          `gorm:"not null;index;type:varchar(64)"`
	Amount        decimal.Decimal `gorm:"not null;type:decimal(12,2)"`
	Currency      string          `gorm:"type:varchar(8)"`
	TransactionID string          `gorm:"type:varchar(128)"`
	Status        string          `gorm:"not null;type:varchar(32)"`
	FailureReason string          `gorm:"type:varchar(255)"`
	RawPayload    string          `gorm:"type:text"`
	CreatedAt     time.Time
}

func (paymentRecord) TableName() string { return "payments" }

func paymentToRecord(p *dompayment.Payment) *paymentRecord {
	return &paymentRecord{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		FailureReason: p.FailureReason,
		RawPayload:    p.RawPayload,
		CreatedAt:     p.CreatedAt,
	}
}

func (r *paymentRecord) toDomain() dompayment.Payment {
	return dompayment.Payment{
		ID:            r.PaymentID,
		OrderID:       r.OrderID,
		Amount:        r.Amount,
		Currency:      r.Currency,
		TransactionID: r.TransactionID,
		Status:        dompayment.Status(r.Status),
		FailureReason: r.FailureReason,
		RawPayload:    r.RawPayload,
		CreatedAt:     r.CreatedAt,
	}
}

type couponRecord struct {
	Code          string          `gorm:"primaryKey;type:varchar(64)"`
	DiscountType  string          `gorm:"not null;type:varchar(16)"`
	DiscountValue decimal.Decimal `gorm:"not null;type:decimal(12,2)"`
	ExpiresAt     time.Time       `gorm:"not null"`
	MinPurchase   decimal.Decimal `gorm:"not null;type:decimal(12,2)"`
	Active        bool            `gorm:"not null;default:true"`
	UsageLimit    *int
	TimesUsed     int `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (couponRecord) TableName() string { return "coupons" }

func (r *couponRecord) toDomain() *coupon.Coupon {
	return &coupon.Coupon{
		Code:        r.Code,
		Type:        coupon.DiscountType(r.DiscountType),
		Value:       r.DiscountValue,
		ExpiresAt:   r.ExpiresAt,
		MinPurchase: r.MinPurchase,
		Active:      r.Active,
		UsageLimit:  r.UsageLimit,
		TimesUsed:   r.TimesUsed,
	}
}
