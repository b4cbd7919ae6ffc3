package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sudo-init-do/skillswap/internal/db"
)

type AdminSwap struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	ServiceTitle string    `json:"service_title"`
	Status       string    `json:"status"`
	Interactions int       `json:"interactions"`
	CreatedAt    time.Time `json:"created_at"`
}

// GET /admin/swaps?status=open
func ListSwaps(c echo.Context) error {
	ctx := context.Background()

	query := `
		SELECT r.id, r.owner_id, u.name, r.service_title, r.status,
		       (SELECT COUNT(*) FROM interactions i WHERE i.swap_request_id = r.id),
		       r.created_at
		FROM swap_requests r
		JOIN users u ON u.id = r.owner_id
	`
	args := []interface{}{}
	if status := c.QueryParam("status"); status != "" {
		query += ` WHERE r.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC LIMIT 200`

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch swaps"})
	}
	defer rows.Close()

	var swaps []AdminSwap
	for rows.Next() {
		var s AdminSwap
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.OwnerName, &s.ServiceTitle, &s.Status, &s.Interactions, &s.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read swap record"})
		}
		swaps = append(swaps, s)
	}
	return c.JSON(http.StatusOK, echo.Map{"swaps": swaps})
}
