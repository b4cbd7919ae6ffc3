package swap

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler exposes the swap-request lifecycle over HTTP. The authenticated
// user id is resolved by the JWT middleware into the echo context; the
// services treat it as an opaque actor id.
type Handler struct {
	requests     *RequestService
	interactions *InteractionService
	progress     *ProgressService
}

func NewHandler(requests *RequestService, interactions *InteractionService, progress *ProgressService) *Handler {
	return &Handler{requests: requests, interactions: interactions, progress: progress}
}

func actorID(c echo.Context) (string, bool) {
	id, ok := c.Get("user_id").(string)
	return id, ok && id != ""
}

func respondError(c echo.Context, err error) error {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// CreateSwap handles POST /swaps.
func (h *Handler) CreateSwap(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var in CreateRequestInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req, err := h.requests.Create(context.Background(), uid, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, req)
}

// ListOpenSwaps handles GET /swaps, the public unranked listing.
func (h *Handler) ListOpenSwaps(c echo.Context) error {
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)
	reqs, err := h.requests.ListOpen(context.Background(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"swaps": reqs})
}

// ListMySwaps handles GET /swaps/me.
func (h *Handler) ListMySwaps(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqs, err := h.requests.ListByOwner(context.Background(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"swaps": reqs})
}

// GetSwap handles GET /swaps/:id, assembling the request with its
// interactions and each participant's latest reported percentage.
func (h *Handler) GetSwap(c echo.Context) error {
	ctx := context.Background()
	req, err := h.requests.Get(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	interactions, err := h.interactions.ListForRequest(ctx, req.ID)
	if err != nil {
		return respondError(c, err)
	}

	progress := echo.Map{}
	if req.Status == StatusInProgress || req.Status == StatusCompleted {
		ownerPct, err := h.progress.Latest(ctx, req.ID, req.OwnerID)
		if err != nil {
			return respondError(c, err)
		}
		progress["owner"] = ownerPct
		for _, in := range interactions {
			if in.Status == InteractionApproved {
				partnerPct, err := h.progress.Latest(ctx, req.ID, in.RequesterID)
				if err != nil {
					return respondError(c, err)
				}
				progress["partner"] = partnerPct
				break
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"swap":         req,
		"interactions": interactions,
		"progress":     progress,
	})
}

// EditSwap handles PATCH /swaps/:id.
func (h *Handler) EditSwap(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var in EditRequestInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req, err := h.requests.Edit(context.Background(), c.Param("id"), uid, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// DeleteSwap handles DELETE /swaps/:id. Only an untouched Open request can be
// hard-deleted; anything else should be cancelled.
func (h *Handler) DeleteSwap(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.requests.Delete(context.Background(), c.Param("id"), uid); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Swap request deleted"})
}

// CancelSwap handles POST /swaps/:id/cancel.
func (h *Handler) CancelSwap(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	req, err := h.requests.Cancel(context.Background(), c.Param("id"), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// CompleteSwap handles POST /swaps/:id/complete.
func (h *Handler) CompleteSwap(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	req, err := h.requests.Complete(context.Background(), c.Param("id"), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// PlaceInteraction handles POST /swaps/:id/interactions.
func (h *Handler) PlaceInteraction(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	in, err := h.interactions.Place(context.Background(), c.Param("id"), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, in)
}

// ApproveInteraction handles POST /interactions/:id/approve.
func (h *Handler) ApproveInteraction(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	in, err := h.interactions.Approve(context.Background(), c.Param("id"), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, in)
}

// RejectInteraction handles POST /interactions/:id/reject.
func (h *Handler) RejectInteraction(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	in, err := h.interactions.Reject(context.Background(), c.Param("id"), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, in)
}

type postProgressRequest struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	Percentage int    `json:"percentage"`
}

// PostProgress handles POST /swaps/:id/progress.
func (h *Handler) PostProgress(c echo.Context) error {
	uid, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body postProgressRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	up, err := h.progress.Post(context.Background(), c.Param("id"), uid, body.Title, body.Message, body.Percentage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, up)
}

// ListProgress handles GET /swaps/:id/progress.
func (h *Handler) ListProgress(c echo.Context) error {
	ups, err := h.progress.List(context.Background(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updates": ups})
}

func intQuery(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
