package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storepanel/internal/service"
	"github.com/Skotchmaster/storepanel/internal/transport"
	"github.com/Skotchmaster/storepanel/internal/util"
	"github.com/Skotchmaster/storepanel/pkg/logging"
)

type SearchHTTP struct {
	Svc *service.ProductSearch
}

func (h *SearchHTTP) Products(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}

	total, found, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		var fe *service.FieldError
		switch {
		case errors.As(err, &fe):
			l.Warn("search_products_error", "status", 400, "reason", "empty query", "error", err)
			return validationError(fe.Fields)
		case errors.Is(err, service.ErrSearchDisabled):
			l.Warn("search_products_error", "status", 503, "reason", "search is not configured")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
		}
		l.Error("search_products_error", "status", 500, "reason", "index query failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	data := make([]transport.ProductResponse, 0, len(found))
	for i := range found {
		data = append(data, transport.ProductView(&found[i]))
	}
	return c.JSON(http.StatusOK, transport.ProductPage{
		Data: data,
		Meta: transport.PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: util.TotalPages(total, limit),
			HasPrev:    page > 1,
			HasNext:    int64(offset+limit) < total,
		},
	})
}
