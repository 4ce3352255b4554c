package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/service"
	middleware "github.com/Skotchmaster/storepanel/pkg/middleware/auth"
	"github.com/Skotchmaster/storepanel/pkg/logging"
	"github.com/Skotchmaster/storepanel/pkg/validate"
)

// ResourceHTTP serves the six CRUD routes of one entity.
type ResourceHTTP[M models.Entity, R any, V any] struct {
	Name string
	Svc  *service.Resource[M, R]
	View func(*M) V
}

func (h *ResourceHTTP[M, R, V]) logger(c echo.Context, op string) (context.Context, *slog.Logger) {
	ctx := c.Request().Context()
	if p, ok := middleware.PrincipalFrom(c); ok {
		ctx = service.WithActor(ctx, p.UserID)
	}
	return ctx, logging.FromContext(ctx).With("handler", h.Name+"."+op)
}

func (h *ResourceHTTP[M, R, V]) event(op string) string {
	return op + "_" + strings.ReplaceAll(h.Name, "-", "_") + "_error"
}

func (h *ResourceHTTP[M, R, V]) List(c echo.Context) error {
	ctx, l := h.logger(c, "list")

	rows, err := h.Svc.List(ctx)
	if err != nil {
		return h.fail(l, "list", err)
	}
	out := make([]V, 0, len(rows))
	for i := range rows {
		out = append(out, h.View(&rows[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ResourceHTTP[M, R, V]) Get(c echo.Context) error {
	ctx, l := h.logger(c, "get")

	id, err := parseID(c)
	if err != nil {
		return h.fail(l, "get", err)
	}
	m, err := h.Svc.Get(ctx, id)
	if err != nil {
		return h.fail(l, "get", err)
	}
	return c.JSON(http.StatusOK, h.View(m))
}

func (h *ResourceHTTP[M, R, V]) Create(c echo.Context) error {
	ctx, l := h.logger(c, "create")

	var req R
	if err := bindAndValidate(c, &req); err != nil {
		return h.fail(l, "create", err)
	}
	m, err := h.Svc.Create(ctx, &req)
	if err != nil {
		return h.fail(l, "create", err)
	}

	l.Info("create_" + strings.ReplaceAll(h.Name, "-", "_") + "_success")
	return c.JSON(http.StatusCreated, h.View(m))
}

func (h *ResourceHTTP[M, R, V]) Replace(c echo.Context) error {
	return h.update(c, "replace", service.ModeReplace)
}

func (h *ResourceHTTP[M, R, V]) Patch(c echo.Context) error {
	return h.update(c, "patch", service.ModePatch)
}

func (h *ResourceHTTP[M, R, V]) update(c echo.Context, op string, mode service.Mode) error {
	ctx, l := h.logger(c, op)

	id, err := parseID(c)
	if err != nil {
		return h.fail(l, op, err)
	}
	var req R
	if err := bindAndValidate(c, &req); err != nil {
		return h.fail(l, op, err)
	}
	m, err := h.Svc.Update(ctx, id, &req, mode)
	if err != nil {
		return h.fail(l, op, err)
	}
	return c.JSON(http.StatusOK, h.View(m))
}

func (h *ResourceHTTP[M, R, V]) Delete(c echo.Context) error {
	ctx, l := h.logger(c, "delete")

	id, err := parseID(c)
	if err != nil {
		return h.fail(l, "delete", err)
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return h.fail(l, "delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// fail logs err and turns it into the HTTP error the client gets.
func (h *ResourceHTTP[M, R, V]) fail(l *slog.Logger, op string, err error) error {
	var he *echo.HTTPError
	var fe *service.FieldError
	switch {
	case errors.As(err, &he):
		l.Warn(h.event(op), "status", he.Code, "reason", "bad request", "error", err)
		return he
	case errors.As(err, &fe):
		l.Warn(h.event(op), "status", http.StatusBadRequest, "reason", "validation failed", "error", err)
		return validationError(fe.Fields)
	case errors.Is(err, service.ErrNotFound):
		l.Warn(h.event(op), "status", http.StatusNotFound, "reason", "no such "+h.Name, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	default:
		l.Error(h.event(op), "status", http.StatusInternalServerError, "reason", "storage failure", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// parseID reports a malformed id as not found; it cannot match any row.
func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, service.ErrNotFound
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		if fields := validate.Fields(err); fields != nil {
			return &service.FieldError{Fields: fields}
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

func validationError(fields map[string]string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"message": "validation failed",
		"errors":  fields,
	})
}
