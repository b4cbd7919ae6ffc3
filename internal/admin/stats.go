package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sudo-init-do/skillswap/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, requests, interactions, updates int

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM swap_requests`).Scan(&requests)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&interactions)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM progress_updates`).Scan(&updates)

	byStatus := map[string]int{}
	rows, err := db.Conn.Query(ctx, `SELECT status, COUNT(*) FROM swap_requests GROUP BY status`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err == nil {
				byStatus[status] = count
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users":            users,
		"swap_requests":    requests,
		"interactions":     interactions,
		"progress_updates": updates,
		"swaps_by_status":  byStatus,
	})
}
