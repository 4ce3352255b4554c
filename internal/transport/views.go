package transport

import (
	"time"

	"github.com/Skotchmaster/storepanel/internal/models"
)

const moneyPlaces = 2

func UserView(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		IsStaff:   u.IsStaff,
		CreatedAt: u.CreatedAt,
	}
}

func StoreView(s *models.Store) StoreResponse {
	return StoreResponse{ID: s.ID, Name: s.Name, Owner: s.OwnerID, CreatedAt: s.CreatedAt}
}

func StaffView(s *models.Staff) StaffResponse {
	return StaffResponse{ID: s.ID, Store: s.StoreID, User: s.UserID, Role: s.Role, AddedAt: s.AddedAt}
}

func ProductView(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Store:       p.StoreID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(moneyPlaces),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}

func OrderView(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for i := range o.Items {
		items = append(items, OrderItemView(&o.Items[i]))
	}
	return OrderResponse{
		ID:            o.ID,
		Store:         o.StoreID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        o.Status,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func OrderItemView(i *models.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:         i.ID,
		Order:      i.OrderID,
		Product:    i.ProductID,
		Quantity:   i.Quantity,
		UnitPrice:  i.UnitPrice.StringFixed(moneyPlaces),
		TotalPrice: i.TotalPrice.StringFixed(moneyPlaces),
	}
}

func OrderLogView(l *models.OrderLog) OrderLogResponse {
	return OrderLogResponse{ID: l.ID, Order: l.OrderID, Status: l.Status, ChangedBy: l.ChangedByID, ChangedAt: l.ChangedAt}
}

// PromoCodeView evaluates is_valid at now.
func PromoCodeView(p *models.PromoCode, now time.Time) PromoCodeResponse {
	return PromoCodeResponse{
		ID:                 p.ID,
		Code:               p.Code,
		DiscountPercentage: p.DiscountPercentage.StringFixed(moneyPlaces),
		MaxUsage:           p.MaxUsage,
		CurrentUsage:       p.CurrentUsage,
		ValidFrom:          p.ValidFrom,
		ValidUntil:         p.ValidUntil,
		IsValid:            p.IsValid(now),
		CreatedAt:          p.CreatedAt,
	}
}

func PromoCodeViewAt(clock func() time.Time) func(*models.PromoCode) PromoCodeResponse {
	return func(p *models.PromoCode) PromoCodeResponse {
		return PromoCodeView(p, clock())
	}
}

func SubscriptionView(s *models.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        s.ID,
		User:      s.UserID,
		Store:     s.StoreID,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		IsTrial:   s.IsTrial,
		PromoCode: s.PromoCodeID,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
	}
}
