package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requests: a nil field was not sent. PUT requires every required field,
// PATCH only touches what is present.

type UserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty,min=1"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin store_owner staff"`
	IsActive *bool   `json:"is_active"`
	IsStaff  *bool   `json:"is_staff"`
}

type StoreRequest struct {
	Name  *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Owner *uuid.UUID `json:"owner"`
}

type StaffRequest struct {
	Store *uuid.UUID `json:"store"`
	User  *uuid.UUID `json:"user"`
	Role  *string    `json:"role" validate:"omitempty,oneof=manager confirmation dispatch delivery"`
}

type ProductRequest struct {
	Store       *uuid.UUID       `json:"store"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description Nullable[string] `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

type OrderRequest struct {
	Store         *uuid.UUID `json:"store"`
	CustomerName  *string    `json:"customer_name" validate:"omitempty,min=1,max=255"`
	CustomerEmail *string    `json:"customer_email" validate:"omitempty,email,max=254"`
	Status        *string    `json:"status" validate:"omitempty,oneof=pending in_confirmation in_dispatch in_delivery delivered returned canceled"`
}

type OrderItemRequest struct {
	Order     *uuid.UUID       `json:"order"`
	Product   *uuid.UUID       `json:"product"`
	Quantity  *int             `json:"quantity" validate:"omitempty,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type OrderLogRequest struct {
	Order     *uuid.UUID `json:"order"`
	Status    *string    `json:"status" validate:"omitempty,oneof=pending in_confirmation in_dispatch in_delivery delivered returned canceled"`
	ChangedBy *uuid.UUID `json:"changed_by"`
}

type PromoCodeRequest struct {
	Code               *string          `json:"code" validate:"omitempty,min=1,max=50"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	MaxUsage           *int             `json:"max_usage" validate:"omitempty,gte=0"`
	CurrentUsage       *int             `json:"current_usage" validate:"omitempty,gte=0"`
	ValidFrom          *time.Time       `json:"valid_from"`
	ValidUntil         *time.Time       `json:"valid_until"`
}

type SubscriptionRequest struct {
	User      *uuid.UUID          `json:"user"`
	Store     Nullable[uuid.UUID] `json:"store"`
	EndDate   *time.Time          `json:"end_date"`
	IsTrial   *bool               `json:"is_trial"`
	PromoCode Nullable[uuid.UUID] `json:"promo_code"`
	Status    *string             `json:"status" validate:"omitempty,oneof=active expired canceled"`
}

// Responses.

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

type StoreResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Owner     uuid.UUID `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

type StaffResponse struct {
	ID      uuid.UUID `json:"id"`
	Store   uuid.UUID `json:"store"`
	User    uuid.UUID `json:"user"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"added_at"`
}

type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Store       uuid.UUID `json:"store"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Store         uuid.UUID           `json:"store"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	Status        string              `json:"status"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	Order      uuid.UUID `json:"order"`
	Product    uuid.UUID `json:"product"`
	Quantity   int       `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	TotalPrice string    `json:"total_price"`
}

type OrderLogResponse struct {
	ID        uuid.UUID `json:"id"`
	Order     uuid.UUID `json:"order"`
	Status    string    `json:"status"`
	ChangedBy uuid.UUID `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

type PromoCodeResponse struct {
	ID                 uuid.UUID `json:"id"`
	Code               string    `json:"code"`
	DiscountPercentage string    `json:"discount_percentage"`
	MaxUsage           int       `json:"max_usage"`
	CurrentUsage       int       `json:"current_usage"`
	ValidFrom          time.Time `json:"valid_from"`
	ValidUntil         time.Time `json:"valid_until"`
	IsValid            bool      `json:"is_valid"`
	CreatedAt          time.Time `json:"created_at"`
}

type SubscriptionResponse struct {
	ID        uuid.UUID  `json:"id"`
	User      uuid.UUID  `json:"user"`
	Store     *uuid.UUID `json:"store"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	IsTrial   bool       `json:"is_trial"`
	PromoCode *uuid.UUID `json:"promo_code"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type ProductPage struct {
	Data []ProductResponse `json:"data"`
	Meta PageMeta          `json:"meta"`
}
