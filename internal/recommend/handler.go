package recommend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/skillswap/internal/swap"
)

// OpenLister serves the unranked fallback when nothing scores for a user.
type OpenLister interface {
	ListOpen(ctx context.Context, limit, offset int) ([]swap.SwapRequest, error)
}

type Handler struct {
	engine   *Engine
	fallback OpenLister
}

func NewHandler(engine *Engine, fallback OpenLister) *Handler {
	return &Handler{engine: engine, fallback: fallback}
}

// Recommended handles GET /swaps/recommended. When the ranked set is empty
// the response carries the general open listing instead, flagged as such, so
// new users with sparse profiles still see something.
func (h *Handler) Recommended(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	ctx := context.Background()
	candidates, err := h.engine.Recommend(ctx, uid, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute recommendations"})
	}
	if len(candidates) > 0 {
		return c.JSON(http.StatusOK, echo.Map{"ranked": true, "candidates": candidates})
	}

	open, err := h.fallback.ListOpen(ctx, limit, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list open swaps"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ranked": false, "swaps": open})
}
