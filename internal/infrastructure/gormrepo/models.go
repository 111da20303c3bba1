// Package gormrepo adapts gorm.io/gorm + the postgres driver to every
// domain Repository port, plus the gorm-backed txn.UnitOfWork. Locking uses
// clause.Locking{Strength: "UPDATE"} for GetForUpdate reads; the lock-free
// stock/debt primitives use a single conditional UPDATE and inspect
// RowsAffected instead of taking a row lock at all.
package gormrepo

import (
	"time"

	domclick "github.com/shopmini/paycore/internal/domain/click"
	domorder "github.com/shopmini/paycore/internal/domain/order"
	dompayme "github.com/shopmini/paycore/internal/domain/payme"
	domproduct "github.com/shopmini/paycore/internal/domain/product"
	domuser "github.com/shopmini/paycore/internal/domain/user"
)

type gormOrder struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	UserID        int64 `gorm:"index"`
	Status        string
	OrderType     string
	PaymentMethod string
	Delivery      string
	TotalAmount   int64
	ContactPhone  string
	Address       string
	Comment       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (gormOrder) TableName() string { return "orders" }

type gormOrderItem struct {
	ID               int64 `gorm:"primaryKey;autoIncrement"`
	OrderID          int64 `gorm:"index"`
	ProductID        *int64
	ProductName      string
	PriceAtPurchase  int64
	Quantity         int
	StockBeforeOrder *int
}

func (gormOrderItem) TableName() string { return "order_items" }

func fromDomainOrder(o *domorder.Order) (gormOrder, []gormOrderItem) {
	row := gormOrder{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		OrderType:     string(o.OrderType),
		PaymentMethod: string(o.PaymentMethod),
		Delivery:      string(o.Delivery),
		TotalAmount:   o.TotalAmount,
		ContactPhone:  o.ContactPhone,
		Address:       o.Address,
		Comment:       o.Comment,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	items := make([]gormOrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, gormOrderItem{
			ID:               it.ID,
			OrderID:          it.OrderID,
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			PriceAtPurchase:  it.PriceAtPurchase,
			Quantity:         it.Quantity,
			StockBeforeOrder: it.StockBeforeOrder,
		})
	}
	return row, items
}

func toDomainOrder(row gormOrder, items []gormOrderItem) *domorder.Order {
	out := &domorder.Order{
		ID:            row.ID,
		UserID:        row.UserID,
		Status:        domorder.Status(row.Status),
		OrderType:     domorder.Type(row.OrderType),
		PaymentMethod: domorder.PaymentMethod(row.PaymentMethod),
		Delivery:      domorder.DeliveryMethod(row.Delivery),
		TotalAmount:   row.TotalAmount,
		ContactPhone:  row.ContactPhone,
		Address:       row.Address,
		Comment:       row.Comment,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	out.Items = make([]domorder.Item, 0, len(items))
	for _, it := range items {
		out.Items = append(out.Items, domorder.Item{
			ID:               it.ID,
			OrderID:          it.OrderID,
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			PriceAtPurchase:  it.PriceAtPurchase,
			Quantity:         it.Quantity,
			StockBeforeOrder: it.StockBeforeOrder,
		})
	}
	return out.Clone()
}

type gormProduct struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	Name        string
	Price       int64
	Stock       int
	IsActive    bool
	IKPU        string
	PackageCode string
}

func (gormProduct) TableName() string { return "products" }

func toDomainProduct(row gormProduct) *domproduct.Product {
	return &domproduct.Product{
		ID:          row.ID,
		Name:        row.Name,
		Price:       row.Price,
		Stock:       row.Stock,
		IsActive:    row.IsActive,
		IKPU:        row.IKPU,
		PackageCode: row.PackageCode,
	}
}

type gormUser struct {
	ID           int64 `gorm:"primaryKey;autoIncrement"`
	TelegramID   *int64 `gorm:"uniqueIndex"`
	Phone        *string
	Language     string
	Role         string
	Debt         int64
	Login        *string
	PasswordHash *string
}

func (gormUser) TableName() string { return "users" }

func toDomainUser(row gormUser) *domuser.User {
	return &domuser.User{
		ID:           row.ID,
		TelegramID:   row.TelegramID,
		Phone:        row.Phone,
		Language:     domuser.Language(row.Language),
		Role:         domuser.Role(row.Role),
		Debt:         row.Debt,
		Login:        row.Login,
		PasswordHash: row.PasswordHash,
	}
}

type gormCartItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"index"`
	ProductID int64 `gorm:"index"`
	Quantity  int
}

func (gormCartItem) TableName() string { return "cart_items" }

type gormPaymeTransaction struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	PaymeID     string `gorm:"uniqueIndex;size:25"`
	OrderID     int64  `gorm:"index"`
	Amount      int64
	Time        int64
	State       int
	Reason      *int
	CreateTime  int64
	PerformTime *int64
	CancelTime  *int64
}

func (gormPaymeTransaction) TableName() string { return "payme_transactions" }

func toDomainPayme(row gormPaymeTransaction) *dompayme.Transaction {
	return &dompayme.Transaction{
		ID:          row.ID,
		PaymeID:     row.PaymeID,
		OrderID:     row.OrderID,
		Amount:      row.Amount,
		Time:        row.Time,
		State:       dompayme.State(row.State),
		Reason:      row.Reason,
		CreateTime:  row.CreateTime,
		PerformTime: row.PerformTime,
		CancelTime:  row.CancelTime,
	}
}

func fromDomainPayme(t *dompayme.Transaction) gormPaymeTransaction {
	return gormPaymeTransaction{
		ID:          t.ID,
		PaymeID:     t.PaymeID,
		OrderID:     t.OrderID,
		Amount:      t.Amount,
		Time:        t.Time,
		State:       int(t.State),
		Reason:      t.Reason,
		CreateTime:  t.CreateTime,
		PerformTime: t.PerformTime,
		CancelTime:  t.CancelTime,
	}
}

type gormClickTransaction struct {
	ID              int64 `gorm:"primaryKey;autoIncrement"`
	ClickTransID    int64 `gorm:"uniqueIndex"`
	MerchantTransID string
	Amount          int64
	Action          int
	Status          string
	SignTime        time.Time
	SignString      string
}

func (gormClickTransaction) TableName() string { return "click_transactions" }

func toDomainClick(row gormClickTransaction) *domclick.Transaction {
	return &domclick.Transaction{
		ID:              row.ID,
		ClickTransID:    row.ClickTransID,
		MerchantTransID: row.MerchantTransID,
		Amount:          row.Amount,
		Action:          domclick.Action(row.Action),
		Status:          domclick.Status(row.Status),
		SignTime:        row.SignTime,
		SignString:      row.SignString,
	}
}

func fromDomainClick(t *domclick.Transaction) gormClickTransaction {
	return gormClickTransaction{
		ID:              t.ID,
		ClickTransID:    t.ClickTransID,
		MerchantTransID: t.MerchantTransID,
		Amount:          t.Amount,
		Action:          int(t.Action),
		Status:          string(t.Status),
		SignTime:        t.SignTime,
		SignString:      t.SignString,
	}
}

// AllModels lists every table for AutoMigrate.
func AllModels() []any {
	return []any{
		&gormOrder{}, &gormOrderItem{}, &gormProduct{}, &gormUser{},
		&gormCartItem{}, &gormPaymeTransaction{}, &gormClickTransaction{},
	}
}
