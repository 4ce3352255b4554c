package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storepanel/internal/events"
	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	"github.com/Skotchmaster/storepanel/internal/transport"
)

// ProductIndexer is the search mirror of the products table.
type ProductIndexer interface {
	Upsert(ctx context.Context, p *models.Product) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type Services struct {
	Users         *Resource[models.User, transport.UserRequest]
	Stores        *Resource[models.Store, transport.StoreRequest]
	Staff         *Resource[models.Staff, transport.StaffRequest]
	Products      *Resource[models.Product, transport.ProductRequest]
	Orders        *Resource[models.Order, transport.OrderRequest]
	OrderItems    *Resource[models.OrderItem, transport.OrderItemRequest]
	OrderLogs     *Resource[models.OrderLog, transport.OrderLogRequest]
	PromoCodes    *Resource[models.PromoCode, transport.PromoCodeRequest]
	Subscriptions *Resource[models.Subscription, transport.SubscriptionRequest]

	ProductSearch *ProductSearch

	// Now is the clock promo code validity is judged by. nil means time.Now.
	Now func() time.Time
}

func (s *Services) Clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// New wires one Resource per entity over db. index may be nil.
func New(db *gorm.DB, pub events.Publisher, index ProductIndexer) *Services {
	users := repo.NewTable[models.User](db, "created_at")
	stores := repo.NewTable[models.Store](db, "created_at")
	staff := repo.NewTable[models.Staff](db, "added_at")
	products := repo.NewTable[models.Product](db, "created_at")
	orders := repo.NewTable[models.Order](db, "created_at", "Items")
	items := repo.NewTable[models.OrderItem](db, "id")
	logs := repo.NewTable[models.OrderLog](db, "changed_at")
	promos := repo.NewTable[models.PromoCode](db, "created_at")
	subs := repo.NewTable[models.Subscription](db, "created_at")

	s := &Services{
		Users: &Resource[models.User, transport.UserRequest]{
			Name: "users", Table: users,
			Prepare:   prepareUser(users),
			Apply:     applyUser,
			Unique:    "email",
			UniqueMsg: msgEmailTaken,
			Payload:   func(m *models.User) any { return transport.UserView(m) },
		},
		Stores: &Resource[models.Store, transport.StoreRequest]{
			Name: "stores", Table: stores,
			Prepare: prepareStore(users),
			Apply:   applyStore,
			Payload: func(m *models.Store) any { return transport.StoreView(m) },
		},
		Staff: &Resource[models.Staff, transport.StaffRequest]{
			Name: "staff", Table: staff,
			Prepare: prepareStaff(stores, users),
			Apply:   applyStaff,
			Payload: func(m *models.Staff) any { return transport.StaffView(m) },
		},
		Products: &Resource[models.Product, transport.ProductRequest]{
			Name: "products", Table: products,
			Prepare: prepareProduct(stores),
			Apply:   applyProduct,
			Payload: func(m *models.Product) any { return transport.ProductView(m) },
		},
		Orders: &Resource[models.Order, transport.OrderRequest]{
			Name: "orders", Table: orders,
			Prepare: prepareOrder(stores),
			Apply:   applyOrder,
			Payload: func(m *models.Order) any { return transport.OrderView(m) },
		},
		OrderItems: &Resource[models.OrderItem, transport.OrderItemRequest]{
			Name: "order-items", Table: items,
			Prepare: prepareOrderItem(orders, products),
			Apply:   applyOrderItem,
			Payload: func(m *models.OrderItem) any { return transport.OrderItemView(m) },
		},
		OrderLogs: &Resource[models.OrderLog, transport.OrderLogRequest]{
			Name: "order-logs", Table: logs,
			Prepare: prepareOrderLog(orders, users),
			Apply:   applyOrderLog,
			Payload: func(m *models.OrderLog) any { return transport.OrderLogView(m) },
		},
		PromoCodes: &Resource[models.PromoCode, transport.PromoCodeRequest]{
			Name: "promo-codes", Table: promos,
			Prepare:   preparePromoCode(promos),
			Apply:     applyPromoCode,
			Unique:    "code",
			UniqueMsg: msgCodeTaken,
		},
		Subscriptions: &Resource[models.Subscription, transport.SubscriptionRequest]{
			Name: "subscriptions", Table: subs,
			Prepare: prepareSubscription(users, stores, promos),
			Apply:   applySubscription,
			Payload: func(m *models.Subscription) any { return transport.SubscriptionView(m) },
		},
		ProductSearch: &ProductSearch{Index: index, Products: products},
	}

	s.PromoCodes.Payload = func(m *models.PromoCode) any { return transport.PromoCodeView(m, s.Clock()) }

	if index != nil {
		s.Products.AfterSave = index.Upsert
		s.Products.AfterDelete = index.Remove
	}
	s.Users.Events = pub
	s.Stores.Events = pub
	s.Staff.Events = pub
	s.Products.Events = pub
	s.Orders.Events = pub
	s.OrderItems.Events = pub
	s.OrderLogs.Events = pub
	s.PromoCodes.Events = pub
	s.Subscriptions.Events = pub
	return s
}
