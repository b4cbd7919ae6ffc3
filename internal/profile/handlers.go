package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/skillswap/internal/db"
)

// RankingInvalidator drops cached recommendation state for a user whose
// profile changed. Wired at startup; nil means no cache is in play.
type RankingInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

var invalidator RankingInvalidator

func SetRankingInvalidator(i RankingInvalidator) {
	invalidator = i
}

// GetPublicProfile returns the public view of any user's profile.
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id in URL"})
	}

	dir := NewDirectory(db.Conn)
	p, err := dir.GetProfile(context.Background(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}
	return c.JSON(http.StatusOK, p)
}

type UpdateProfileRequest struct {
	Name       string   `json:"name"`
	Bio        string   `json:"bio"`
	AvatarURL  string   `json:"avatar_url"`
	Skills     []string `json:"skills"`
	Categories []string `json:"categories"`
	City       string   `json:"city"`
}

// UpdateProfile patches the caller's own profile. Empty strings leave the
// stored value untouched; skills/categories replace the whole array when
// present.
func UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(UpdateProfileRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := context.Background()
	_, err := db.Conn.Exec(ctx, `
		UPDATE users
		SET
			name = COALESCE(NULLIF($1, ''), name),
			bio = COALESCE(NULLIF($2, ''), bio),
			avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
			city = COALESCE(NULLIF($4, ''), city),
			skills = COALESCE($5, skills),
			categories = COALESCE($6, categories),
			updated_at = NOW()
		WHERE id = $7`,
		req.Name, req.Bio, req.AvatarURL, req.City, req.Skills, req.Categories, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	// New skills or categories stale any cached ranking for this user.
	if invalidator != nil {
		invalidator.Invalidate(ctx, userID)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}
