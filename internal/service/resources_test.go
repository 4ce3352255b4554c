package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storepanel/internal/events"
	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/testdb"
	"github.com/Skotchmaster/storepanel/internal/transport"
)

func ptr[T any](v T) *T { return &v }

type fakeIndex struct {
	mu      sync.Mutex
	upserts []uuid.UUID
	removed []uuid.UUID
	hits    []uuid.UUID
}

func (f *fakeIndex) Upsert(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, p.ID)
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, from, size int) (int64, []uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	end := min(from+size, len(f.hits))
	if from > end {
		from = end
	}
	return int64(len(f.hits)), f.hits[from:end], nil
}

type fixture struct {
	svc   *Services
	rec   *events.Recorder
	index *fakeIndex
	owner *models.User
	store *models.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := &events.Recorder{}
	idx := &fakeIndex{}
	svc := New(testdb.New(t), rec, idx)
	ctx := context.Background()

	owner, err := svc.Users.Create(ctx, &transport.UserRequest{
		Name: ptr("Owner"), Email: ptr("owner@x.com"), Password: ptr("pw"), Role: ptr(models.RoleStoreOwner),
	})
	require.NoError(t, err)
	store, err := svc.Stores.Create(ctx, &transport.StoreRequest{Name: ptr("Shop"), Owner: &owner.ID})
	require.NoError(t, err)

	return &fixture{svc: svc, rec: rec, index: idx, owner: owner, store: store}
}

func fieldErr(t *testing.T, err error) map[string]string {
	t.Helper()
	var fe *FieldError
	require.True(t, errors.As(err, &fe), "want FieldError, got %v", err)
	return fe.Fields
}

func TestUsers_CreateHashesAndHidesPassword(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()

	assert.NotEqual(t, "pw", fx.owner.PasswordHash)
	assert.True(t, fx.owner.IsActive)
	assert.Equal(t, models.RoleStoreOwner, fx.owner.Role)

	_, err := fx.svc.Users.Create(ctx, &transport.UserRequest{Name: ptr("X"), Email: ptr("owner@x.com"), Password: ptr("pw")})
	assert.Equal(t, msgEmailTaken, fieldErr(t, err)["email"])

	_, err = fx.svc.Users.Create(ctx, &transport.UserRequest{Name: ptr("X"), Email: ptr("new@x.com")})
	assert.Contains(t, fieldErr(t, err), "password")

	// PUT may omit the password and keeps the old hash.
	before := fx.owner.PasswordHash
	u, err := fx.svc.Users.Update(ctx, fx.owner.ID, &transport.UserRequest{Name: ptr("Renamed"), Email: ptr("owner@x.com")}, ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.Name)
	assert.Equal(t, before, u.PasswordHash)

	first := fx.rec.Events()[0]
	assert.Equal(t, "users_events", first.Topic)
	assert.IsType(t, transport.UserResponse{}, first.Event.(events.Event).Data)
}

func TestResource_CreateRequiresFieldsAndReferences(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Products.Create(ctx, &transport.ProductRequest{})
	fields := fieldErr(t, err)
	assert.Equal(t, msgRequired, fields["store"])
	assert.Equal(t, msgRequired, fields["name"])
	assert.Equal(t, msgRequired, fields["price"])

	missing := uuid.New()
	_, err = fx.svc.Products.Create(ctx, &transport.ProductRequest{
		Store: &missing, Name: ptr("Mug"), Price: ptr(decimal.RequireFromString("1.00")),
	})
	assert.Contains(t, fieldErr(t, err)["store"], "does not exist")

	_, err = fx.svc.Products.Create(ctx, &transport.ProductRequest{
		Store: &fx.store.ID, Name: ptr("Mug"), Price: ptr(decimal.RequireFromString("1.005")),
	})
	assert.Contains(t, fieldErr(t, err)["price"], "decimal places")

	_, err = fx.svc.Products.Create(ctx, &transport.ProductRequest{
		Store: &fx.store.ID, Name: ptr("Mug"), Price: ptr(decimal.RequireFromString("100000000")),
	})
	assert.Contains(t, fieldErr(t, err)["price"], "digits before the decimal point")
}

func TestResource_ReplaceAndPatch(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.svc.Products.Create(ctx, &transport.ProductRequest{
		Store: &fx.store.ID, Name: ptr("Mug"), Description: transport.Nullable[string]{Set: true, Value: ptr("Blue")},
		Price: ptr(decimal.RequireFromString("9.5")), Stock: ptr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, "9.50", p.Price.StringFixed(2))

	_, err = fx.svc.Products.Update(ctx, p.ID, &transport.ProductRequest{Name: ptr("Cup")}, ModeReplace)
	assert.Contains(t, fieldErr(t, err), "price")

	patched, err := fx.svc.Products.Update(ctx, p.ID, &transport.ProductRequest{
		Name: ptr("Cup"), Description: transport.Nullable[string]{Set: true},
	}, ModePatch)
	require.NoError(t, err)
	assert.Equal(t, "Cup", patched.Name)
	assert.Nil(t, patched.Description)
	assert.Equal(t, 4, patched.Stock)
	assert.Equal(t, "9.50", patched.Price.StringFixed(2))

	_, err = fx.svc.Products.Update(ctx, uuid.New(), &transport.ProductRequest{}, ModePatch)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = fx.svc.Products.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fx.svc.Products.Delete(ctx, uuid.New()), ErrNotFound)

	require.NoError(t, fx.svc.Products.Delete(ctx, p.ID))
	assert.Equal(t, []uuid.UUID{p.ID, p.ID}, fx.index.upserts)
	assert.Equal(t, []uuid.UUID{p.ID}, fx.index.removed)
}

func TestOrders_StatusMachine(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	base := transport.OrderRequest{Store: &fx.store.ID, CustomerName: ptr("C"), CustomerEmail: ptr("c@x.com")}

	bad := base
	bad.Status = ptr(models.OrderDelivered)
	_, err := fx.svc.Orders.Create(ctx, &bad)
	assert.Contains(t, fieldErr(t, err), "status")

	o, err := fx.svc.Orders.Create(ctx, &base)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.Empty(t, o.Items)

	_, err = fx.svc.Orders.Update(ctx, o.ID, &transport.OrderRequest{Status: ptr(models.OrderDelivered)}, ModePatch)
	assert.Equal(t, "cannot change status from pending to delivered", fieldErr(t, err)["status"])

	for _, next := range []string{models.OrderInConfirmation, models.OrderInDispatch, models.OrderInDelivery, models.OrderDelivered, models.OrderReturned} {
		o, err = fx.svc.Orders.Update(ctx, o.ID, &transport.OrderRequest{Status: ptr(next)}, ModePatch)
		require.NoError(t, err, next)
		assert.Equal(t, next, o.Status)
	}

	_, err = fx.svc.Orders.Update(ctx, o.ID, &transport.OrderRequest{Status: ptr(models.OrderPending)}, ModePatch)
	assert.Contains(t, fieldErr(t, err), "status")

	_, err = fx.svc.Orders.Update(ctx, o.ID, &transport.OrderRequest{Status: ptr("lost")}, ModePatch)
	assert.Contains(t, fieldErr(t, err)["status"], "not a valid choice")
}

func TestOrderItems_PriceCopiedAndTotalDerived(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	p, err := fx.svc.Products.Create(ctx, &transport.ProductRequest{
		Store: &fx.store.ID, Name: ptr("Mug"), Price: ptr(decimal.RequireFromString("12.30")),
	})
	require.NoError(t, err)
	o, err := fx.svc.Orders.Create(ctx, &transport.OrderRequest{Store: &fx.store.ID, CustomerName: ptr("C"), CustomerEmail: ptr("c@x.com")})
	require.NoError(t, err)

	it, err := fx.svc.OrderItems.Create(ctx, &transport.OrderItemRequest{Order: &o.ID, Product: &p.ID, Quantity: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, "12.30", it.UnitPrice.StringFixed(2))
	assert.Equal(t, "36.90", it.TotalPrice.StringFixed(2))

	// Later price changes do not touch existing lines.
	_, err = fx.svc.Products.Update(ctx, p.ID, &transport.ProductRequest{Price: ptr(decimal.RequireFromString("99.00"))}, ModePatch)
	require.NoError(t, err)

	it, err = fx.svc.OrderItems.Update(ctx, it.ID, &transport.OrderItemRequest{Quantity: ptr(2)}, ModePatch)
	require.NoError(t, err)
	assert.Equal(t, "24.60", it.TotalPrice.StringFixed(2))

	_, err = fx.svc.OrderItems.Create(ctx, &transport.OrderItemRequest{Order: &o.ID, Product: &p.ID, Quantity: ptr(0)})
	assert.Contains(t, fieldErr(t, err), "quantity")

	got, err := fx.svc.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, it.ID, got.Items[0].ID)
}

func TestOrderLogs_ChangedByDefaultsToActor(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	o, err := fx.svc.Orders.Create(context.Background(), &transport.OrderRequest{Store: &fx.store.ID, CustomerName: ptr("C"), CustomerEmail: ptr("c@x.com")})
	require.NoError(t, err)

	ctx := WithActor(context.Background(), fx.owner.ID)
	l, err := fx.svc.OrderLogs.Create(ctx, &transport.OrderLogRequest{Order: &o.ID, Status: ptr(models.OrderInConfirmation)})
	require.NoError(t, err)
	assert.Equal(t, fx.owner.ID, l.ChangedByID)

	_, err = fx.svc.OrderLogs.Create(context.Background(), &transport.OrderLogRequest{Order: &o.ID, Status: ptr(models.OrderInConfirmation)})
	assert.Equal(t, msgRequired, fieldErr(t, err)["changed_by"])
}

func TestPromoCodes(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	p, err := fx.svc.PromoCodes.Create(ctx, &transport.PromoCodeRequest{
		Code: ptr("SPRING"), ValidFrom: ptr(now.Add(-time.Hour)), ValidUntil: ptr(now.Add(time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.MaxUsage)
	assert.Equal(t, 0, p.CurrentUsage)
	assert.True(t, p.DiscountPercentage.IsZero())
	assert.True(t, p.IsValid(now))

	_, err = fx.svc.PromoCodes.Create(ctx, &transport.PromoCodeRequest{
		Code: ptr("SPRING"), ValidFrom: ptr(now), ValidUntil: ptr(now),
	})
	assert.Equal(t, msgCodeTaken, fieldErr(t, err)["code"])

	_, err = fx.svc.PromoCodes.Create(ctx, &transport.PromoCodeRequest{
		Code: ptr("BACKWARDS"), ValidFrom: ptr(now), ValidUntil: ptr(now.Add(-time.Minute)),
	})
	assert.Contains(t, fieldErr(t, err), "valid_until")

	_, err = fx.svc.PromoCodes.Create(ctx, &transport.PromoCodeRequest{
		Code: ptr("GREEDY"), DiscountPercentage: ptr(decimal.NewFromInt(150)), ValidFrom: ptr(now), ValidUntil: ptr(now),
	})
	assert.Contains(t, fieldErr(t, err), "discount_percentage")

	used, err := fx.svc.PromoCodes.Update(ctx, p.ID, &transport.PromoCodeRequest{CurrentUsage: ptr(1)}, ModePatch)
	require.NoError(t, err)
	assert.False(t, used.IsValid(now))
}

func TestPromoCodes_EventValidityUsesClock(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.svc.Now = func() time.Time { return time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC) }
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := fx.svc.PromoCodes.Create(context.Background(), &transport.PromoCodeRequest{
		Code: ptr("OLD"), ValidFrom: ptr(from), ValidUntil: ptr(from.AddDate(0, 6, 0)),
	})
	require.NoError(t, err)

	all := fx.rec.Events()
	last := all[len(all)-1]
	require.Equal(t, "promo_codes_events", last.Topic)
	view := last.Event.(events.Event).Data.(transport.PromoCodeResponse)
	assert.False(t, view.IsValid)
}

func TestSubscriptions_StatusAndNullableLinks(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	promo, err := fx.svc.PromoCodes.Create(ctx, &transport.PromoCodeRequest{
		Code: ptr("TRIAL"), ValidFrom: ptr(now), ValidUntil: ptr(now.Add(time.Hour)),
	})
	require.NoError(t, err)

	s, err := fx.svc.Subscriptions.Create(ctx, &transport.SubscriptionRequest{
		User:      &fx.owner.ID,
		Store:     transport.Nullable[uuid.UUID]{Set: true, Value: &fx.store.ID},
		PromoCode: transport.Nullable[uuid.UUID]{Set: true, Value: &promo.ID},
		EndDate:   ptr(now.Add(30 * 24 * time.Hour)),
		IsTrial:   ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, s.Status)
	assert.True(t, s.IsTrial)

	s, err = fx.svc.Subscriptions.Update(ctx, s.ID, &transport.SubscriptionRequest{Status: ptr(models.SubscriptionCanceled)}, ModePatch)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCanceled, s.Status)

	s, err = fx.svc.Subscriptions.Update(ctx, s.ID, &transport.SubscriptionRequest{IsTrial: ptr(false)}, ModePatch)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCanceled, s.Status, "cancellation survives unrelated saves")

	s, err = fx.svc.Subscriptions.Update(ctx, s.ID, &transport.SubscriptionRequest{
		EndDate:   ptr(now.Add(-time.Hour)),
		PromoCode: transport.Nullable[uuid.UUID]{Set: true},
	}, ModePatch)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, s.Status)
	assert.Nil(t, s.PromoCodeID)
	require.NotNil(t, s.StoreID)

	missing := uuid.New()
	_, err = fx.svc.Subscriptions.Create(ctx, &transport.SubscriptionRequest{
		User: &fx.owner.ID, EndDate: ptr(now), PromoCode: transport.Nullable[uuid.UUID]{Set: true, Value: &missing},
	})
	assert.Contains(t, fieldErr(t, err), "promo_code")
}

func TestResource_PublishesEvents(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := WithActor(context.Background(), fx.owner.ID)

	_, err := fx.svc.Stores.Update(ctx, fx.store.ID, &transport.StoreRequest{Name: ptr("Renamed")}, ModePatch)
	require.NoError(t, err)
	require.NoError(t, fx.svc.Stores.Delete(ctx, fx.store.ID))

	var types []string
	for _, p := range fx.rec.Events() {
		if p.Topic != "stores_events" {
			continue
		}
		ev := p.Event.(events.Event)
		types = append(types, ev.Type)
		assert.Equal(t, fx.store.ID.String(), p.Key)
	}
	assert.Equal(t, []string{"stores.created", "stores.updated", "stores.deleted"}, types)

	last := fx.rec.Events()[len(fx.rec.Events())-1].Event.(events.Event)
	require.NotNil(t, last.Actor)
	assert.Equal(t, fx.owner.ID, *last.Actor)
}

func TestProductSearch(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	p, err := fx.svc.Products.Create(ctx, &transport.ProductRequest{
		Store: &fx.store.ID, Name: ptr("Mug"), Price: ptr(decimal.RequireFromString("3.00")),
	})
	require.NoError(t, err)
	gone := uuid.New()
	fx.index.hits = []uuid.UUID{gone, p.ID}

	total, found, err := fx.svc.ProductSearch.Search(ctx, "mug", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, p.ID, found[0].ID)
	assert.Contains(t, fx.index.removed, gone)

	_, _, err = fx.svc.ProductSearch.Search(ctx, "  ", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	disabled := &ProductSearch{Products: fx.svc.ProductSearch.Products}
	_, _, err = disabled.Search(ctx, "mug", 0, 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestProductSearch_TotalSkipsCascadedRows(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	var ids []uuid.UUID
	for _, name := range []string{"Mug", "Mug XL", "Mug Mini"} {
		p, err := fx.svc.Products.Create(ctx, &transport.ProductRequest{
			Store: &fx.store.ID, Name: ptr(name), Price: ptr(decimal.RequireFromString("3.00")),
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	fx.index.hits = ids

	// The cascade removes the rows without touching the index.
	require.NoError(t, fx.svc.Stores.Delete(ctx, fx.store.ID))

	total, found, err := fx.svc.ProductSearch.Search(ctx, "mug", 0, 2)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.EqualValues(t, 1, total)
	assert.Len(t, fx.index.removed, 2)
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Foo.Bar@example.com", NormalizeEmail("  Foo.Bar@EXAMPLE.Com "))
	assert.Equal(t, "nodomain", NormalizeEmail("nodomain"))
}
