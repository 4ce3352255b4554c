package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	"github.com/Skotchmaster/storepanel/internal/transport"
)

const msgCodeTaken = "promo code with this code already exists"

var hundred = decimal.NewFromInt(100)

func preparePromoCode(promos *repo.Table[models.PromoCode]) func(context.Context, *transport.PromoCodeRequest, uuid.UUID, Mode) error {
	return func(ctx context.Context, req *transport.PromoCodeRequest, id uuid.UUID, _ Mode) error {
		if req.Code == nil {
			return nil
		}
		taken, err := promos.Taken(ctx, "code", strings.TrimSpace(*req.Code), id)
		if err != nil {
			return err
		}
		if taken {
			return Invalid("code", msgCodeTaken)
		}
		return nil
	}
}

func applyPromoCode(_ context.Context, req *transport.PromoCodeRequest, p *models.PromoCode, mode Mode) error {
	f := fieldErrors{}
	if needText(f, "code", req.Code, mode) {
		p.Code = strings.TrimSpace(*req.Code)
	}

	switch {
	case req.DiscountPercentage != nil:
		d := *req.DiscountPercentage
		checkDecimal(f, "discount_percentage", d, 5, 2)
		if d.GreaterThan(hundred) {
			f.add("discount_percentage", "ensure this value is less than or equal to 100")
		}
		p.DiscountPercentage = d
	case mode == ModeCreate:
		p.DiscountPercentage = decimal.Zero
	}

	switch {
	case req.MaxUsage != nil:
		if *req.MaxUsage < 0 {
			f.add("max_usage", "ensure this value is greater than or equal to 0")
		}
		p.MaxUsage = *req.MaxUsage
	case mode == ModeCreate:
		p.MaxUsage = 1
	}
	if req.CurrentUsage != nil {
		if *req.CurrentUsage < 0 {
			f.add("current_usage", "ensure this value is greater than or equal to 0")
		}
		p.CurrentUsage = *req.CurrentUsage
	}

	if need(f, "valid_from", req.ValidFrom, mode) {
		p.ValidFrom = req.ValidFrom.UTC()
	}
	if need(f, "valid_until", req.ValidUntil, mode) {
		p.ValidUntil = req.ValidUntil.UTC()
	}
	if len(f) == 0 && p.ValidUntil.Before(p.ValidFrom) {
		f.add("valid_until", "must not be earlier than valid_from")
	}
	return f.err()
}

var subscriptionStatuses = []string{
	models.SubscriptionActive,
	models.SubscriptionExpired,
	models.SubscriptionCanceled,
}

func prepareSubscription(users *repo.Table[models.User], stores *repo.Table[models.Store], promos *repo.Table[models.PromoCode]) func(context.Context, *transport.SubscriptionRequest, uuid.UUID, Mode) error {
	return func(ctx context.Context, req *transport.SubscriptionRequest, _ uuid.UUID, _ Mode) error {
		f := fieldErrors{}
		if err := checkRef(ctx, users, f, "user", req.User); err != nil {
			return err
		}
		if err := checkRef(ctx, stores, f, "store", req.Store.Value); err != nil {
			return err
		}
		if err := checkRef(ctx, promos, f, "promo_code", req.PromoCode.Value); err != nil {
			return err
		}
		return f.err()
	}
}

// applySubscription leaves the final status to Subscription.DeriveStatus,
// which runs on save.
func applySubscription(_ context.Context, req *transport.SubscriptionRequest, s *models.Subscription, mode Mode) error {
	f := fieldErrors{}
	if need(f, "user", req.User, mode) {
		s.UserID = *req.User
	}
	if need(f, "end_date", req.EndDate, mode) {
		s.EndDate = req.EndDate.UTC()
	}
	if req.IsTrial != nil {
		s.IsTrial = *req.IsTrial
	}
	if req.Store.Set {
		s.StoreID = req.Store.Value
	}
	if req.PromoCode.Set {
		s.PromoCodeID = req.PromoCode.Value
	}
	if req.Status != nil && oneOf(f, "status", *req.Status, subscriptionStatuses...) {
		s.Status = *req.Status
	}
	return f.err()
}
