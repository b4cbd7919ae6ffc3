package auth

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/skillswap/internal/alerts"
	"github.com/sudo-init-do/skillswap/internal/db"
)

type SignupRequest struct {
	Name       string   `json:"name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	Skills     []string `json:"skills"`
	Categories []string `json:"categories"`
	City       string   `json:"city"`
}

type SignupResponse struct {
	Token string `json:"token"`
}

// ===== Signup =====
func Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and a password of at least 6 characters are required"})
	}

	// Hash password
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	if req.Skills == nil {
		req.Skills = []string{}
	}
	if req.Categories == nil {
		req.Categories = []string{}
	}

	ctx := context.Background()

	// Default role is always "member"
	var userID string
	err = db.Conn.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password, role, skills, categories, city)
		VALUES ($1, $2, $3, $4, 'member', $5, $6, $7)
		RETURNING id
	`, uuid.New().String(), req.Name, req.Email, string(hashed), req.Skills, req.Categories, req.City).Scan(&userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
	}

	// Welcome email is best-effort, never blocks signup
	if err := alerts.EnqueueWelcomeEmail(userID, req.Email, req.Name); err != nil {
		c.Logger().Warnf("failed to enqueue welcome email for %s: %v", userID, err)
	}

	// JWT with user_id
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    "member",
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusOK, SignupResponse{Token: signed})
}
