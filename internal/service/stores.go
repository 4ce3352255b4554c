package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	"github.com/Skotchmaster/storepanel/internal/transport"
)

func prepareStore(users *repo.Table[models.User]) func(context.Context, *transport.StoreRequest, uuid.UUID, Mode) error {
	return func(ctx context.Context, req *transport.StoreRequest, _ uuid.UUID, _ Mode) error {
		f := fieldErrors{}
		if err := checkRef(ctx, users, f, "owner", req.Owner); err != nil {
			return err
		}
		return f.err()
	}
}

func applyStore(_ context.Context, req *transport.StoreRequest, s *models.Store, mode Mode) error {
	f := fieldErrors{}
	if needText(f, "name", req.Name, mode) {
		s.Name = strings.TrimSpace(*req.Name)
	}
	if need(f, "owner", req.Owner, mode) {
		s.OwnerID = *req.Owner
	}
	return f.err()
}

func prepareStaff(stores *repo.Table[models.Store], users *repo.Table[models.User]) func(context.Context, *transport.StaffRequest, uuid.UUID, Mode) error {
	return func(ctx context.Context, req *transport.StaffRequest, _ uuid.UUID, _ Mode) error {
		f := fieldErrors{}
		if err := checkRef(ctx, stores, f, "store", req.Store); err != nil {
			return err
		}
		if err := checkRef(ctx, users, f, "user", req.User); err != nil {
			return err
		}
		return f.err()
	}
}

func applyStaff(_ context.Context, req *transport.StaffRequest, s *models.Staff, mode Mode) error {
	f := fieldErrors{}
	if need(f, "store", req.Store, mode) {
		s.StoreID = *req.Store
	}
	if need(f, "user", req.User, mode) {
		s.UserID = *req.User
	}
	if needText(f, "role", req.Role, mode) &&
		oneOf(f, "role", *req.Role, models.StaffManager, models.StaffConfirmation, models.StaffDispatch, models.StaffDelivery) {
		s.Role = *req.Role
	}
	return f.err()
}

func prepareProduct(stores *repo.Table[models.Store]) func(context.Context, *transport.ProductRequest, uuid.UUID, Mode) error {
	return func(ctx context.Context, req *transport.ProductRequest, _ uuid.UUID, _ Mode) error {
		f := fieldErrors{}
		if err := checkRef(ctx, stores, f, "store", req.Store); err != nil {
			return err
		}
		return f.err()
	}
}

func applyProduct(_ context.Context, req *transport.ProductRequest, p *models.Product, mode Mode) error {
	f := fieldErrors{}
	if need(f, "store", req.Store, mode) {
		p.StoreID = *req.Store
	}
	if needText(f, "name", req.Name, mode) {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description.Set {
		p.Description = req.Description.Value
	}
	if need(f, "price", req.Price, mode) {
		checkDecimal(f, "price", *req.Price, 10, 2)
		p.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			f.add("stock", "ensure this value is greater than or equal to 0")
		}
		p.Stock = *req.Stock
	}
	return f.err()
}
