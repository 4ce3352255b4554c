package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	"github.com/Skotchmaster/storepanel/internal/transport"
)

var orderStatuses = []string{
	models.OrderPending,
	models.OrderInConfirmation,
	models.OrderInDispatch,
	models.OrderInDelivery,
	models.OrderDelivered,
	models.OrderReturned,
	models.OrderCanceled,
}

func prepareOrder(stores *repo.Table[models.Store]) func(context.Context, *transport.OrderRequest, uuid.UUID, Mode) error {
	return func(ctx context.Context, req *transport.OrderRequest, _ uuid.UUID, _ Mode) error {
		f := fieldErrors{}
		if err := checkRef(ctx, stores, f, "store", req.Store); err != nil {
			return err
		}
		return f.err()
	}
}

func applyOrder(_ context.Context, req *transport.OrderRequest, o *models.Order, mode Mode) error {
	f := fieldErrors{}
	if need(f, "store", req.Store, mode) {
		o.StoreID = *req.Store
	}
	if needText(f, "customer_name", req.CustomerName, mode) {
		o.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if needText(f, "customer_email", req.CustomerEmail, mode) {
		o.CustomerEmail = strings.TrimSpace(*req.CustomerEmail)
	}

	if req.Status != nil && oneOf(f, "status", *req.Status, orderStatuses...) {
		next := *req.Status
		switch {
		case mode == ModeCreate && next != models.OrderPending:
			f.add("status", "new orders start as pending")
		case mode != ModeCreate && !models.CanTransition(o.Status, next):
			f.add("status", fmt.Sprintf("cannot change status from %s to %s", o.Status, next))
		default:
			o.Status = next
		}
	}
	return f.err()
}

func prepareOrderItem(orders *repo.Table[models.Order], products *repo.Table[models.Product]) func(context.Context, *transport.OrderItemRequest, uuid.UUID, Mode) error {
	return func(ctx context.Context, req *transport.OrderItemRequest, _ uuid.UUID, mode Mode) error {
		f := fieldErrors{}
		if err := checkRef(ctx, orders, f, "order", req.Order); err != nil {
			return err
		}
		if err := checkRef(ctx, products, f, "product", req.Product); err != nil {
			return err
		}
		if err := f.err(); err != nil {
			return err
		}

		// The line keeps the price the product had when it was ordered.
		if mode == ModeCreate && req.UnitPrice == nil && req.Product != nil {
			p, err := products.Get(ctx, *req.Product)
			if err != nil {
				return err
			}
			price := p.Price
			req.UnitPrice = &price
		}
		return nil
	}
}

func applyOrderItem(_ context.Context, req *transport.OrderItemRequest, it *models.OrderItem, mode Mode) error {
	f := fieldErrors{}
	if need(f, "order", req.Order, mode) {
		it.OrderID = *req.Order
	}
	if need(f, "product", req.Product, mode) {
		it.ProductID = *req.Product
	}
	if need(f, "quantity", req.Quantity, mode) {
		if *req.Quantity < 1 {
			f.add("quantity", "ensure this value is greater than or equal to 1")
		}
		it.Quantity = *req.Quantity
	}
	if need(f, "unit_price", req.UnitPrice, mode) {
		checkDecimal(f, "unit_price", *req.UnitPrice, 10, 2)
		it.UnitPrice = *req.UnitPrice
	}
	if err := f.err(); err != nil {
		return err
	}
	// total_price shares the decimal(10,2) column shape.
	checkDecimal(f, "total_price", it.Total(), 10, 2)
	return f.err()
}

func prepareOrderLog(orders *repo.Table[models.Order], users *repo.Table[models.User]) func(context.Context, *transport.OrderLogRequest, uuid.UUID, Mode) error {
	return func(ctx context.Context, req *transport.OrderLogRequest, _ uuid.UUID, mode Mode) error {
		if mode == ModeCreate && req.ChangedBy == nil {
			if actor, ok := ActorFromContext(ctx); ok {
				req.ChangedBy = &actor
			}
		}

		f := fieldErrors{}
		if err := checkRef(ctx, orders, f, "order", req.Order); err != nil {
			return err
		}
		if err := checkRef(ctx, users, f, "changed_by", req.ChangedBy); err != nil {
			return err
		}
		return f.err()
	}
}

func applyOrderLog(_ context.Context, req *transport.OrderLogRequest, l *models.OrderLog, mode Mode) error {
	f := fieldErrors{}
	if need(f, "order", req.Order, mode) {
		l.OrderID = *req.Order
	}
	if needText(f, "status", req.Status, mode) && oneOf(f, "status", *req.Status, orderStatuses...) {
		l.Status = *req.Status
	}
	if need(f, "changed_by", req.ChangedBy, mode) {
		l.ChangedByID = *req.ChangedBy
	}
	return f.err()
}
