package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/service"
	"github.com/Skotchmaster/storepanel/internal/transport"
	"github.com/Skotchmaster/storepanel/pkg/db"
	middleware "github.com/Skotchmaster/storepanel/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/storepanel/pkg/middleware/logging"
	"github.com/Skotchmaster/storepanel/pkg/validate"
)

type Deps struct {
	DB       *gorm.DB
	Services *service.Services
	Auth     *service.AuthService
	Logger   *slog.Logger
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = validate.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(d.Logger))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	authMW := middleware.NewBearerAuth(bearerAuthenticator(d.Auth))
	authHTTP := &AuthHTTP{Svc: d.Auth}

	api := e.Group("/api")
	api.POST("/auth/signup", authHTTP.Signup)
	api.POST("/auth/login", authHTTP.Login)

	private := api.Group("", authMW.RequireAuth)
	private.POST("/auth/logout", authHTTP.Logout)

	s := d.Services
	private.GET("/products/search", (&SearchHTTP{Svc: s.ProductSearch}).Products)

	mount(private, &ResourceHTTP[models.User, transport.UserRequest, transport.UserResponse]{Name: "users", Svc: s.Users, View: transport.UserView}, true)
	mount(private, &ResourceHTTP[models.Store, transport.StoreRequest, transport.StoreResponse]{Name: "stores", Svc: s.Stores, View: transport.StoreView}, true)
	mount(private, &ResourceHTTP[models.Staff, transport.StaffRequest, transport.StaffResponse]{Name: "staff", Svc: s.Staff, View: transport.StaffView}, true)
	mount(private, &ResourceHTTP[models.Product, transport.ProductRequest, transport.ProductResponse]{Name: "products", Svc: s.Products, View: transport.ProductView}, true)
	mount(private, &ResourceHTTP[models.Order, transport.OrderRequest, transport.OrderResponse]{Name: "orders", Svc: s.Orders, View: transport.OrderView}, true)
	mount(private, &ResourceHTTP[models.OrderItem, transport.OrderItemRequest, transport.OrderItemResponse]{Name: "order-items", Svc: s.OrderItems, View: transport.OrderItemView}, true)
	mount(private, &ResourceHTTP[models.OrderLog, transport.OrderLogRequest, transport.OrderLogResponse]{Name: "order-logs", Svc: s.OrderLogs, View: transport.OrderLogView}, false)
	mount(private, &ResourceHTTP[models.PromoCode, transport.PromoCodeRequest, transport.PromoCodeResponse]{Name: "promo-codes", Svc: s.PromoCodes, View: transport.PromoCodeViewAt(s.Clock)}, true)
	mount(private, &ResourceHTTP[models.Subscription, transport.SubscriptionRequest, transport.SubscriptionResponse]{Name: "subscriptions", Svc: s.Subscriptions, View: transport.SubscriptionView}, true)
}

// mount registers the CRUD routes under /<name>. Without writable the
// resource is append-only and update verbs answer 405.
func mount[M models.Entity, R any, V any](g *echo.Group, h *ResourceHTTP[M, R, V], writable bool) {
	r := g.Group("/" + h.Name)
	r.GET("", h.List)
	r.POST("", h.Create)
	r.GET("/:id", h.Get)
	r.DELETE("/:id", h.Delete)
	if writable {
		r.PUT("/:id", h.Replace)
		r.PATCH("/:id", h.Patch)
		return
	}
	r.PUT("/:id", methodNotAllowed)
	r.PATCH("/:id", methodNotAllowed)
}

func methodNotAllowed(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderAllow, "GET, POST, DELETE")
	return echo.ErrMethodNotAllowed
}

func bearerAuthenticator(auth *service.AuthService) middleware.Authenticator {
	return middleware.AuthenticatorFunc(func(ctx context.Context, raw string) (middleware.Principal, error) {
		user, tok, err := auth.Authenticate(ctx, raw)
		if err != nil {
			return middleware.Principal{}, err
		}
		return middleware.Principal{UserID: user.ID, Role: user.Role, TokenID: tok.ID}, nil
	})
}
