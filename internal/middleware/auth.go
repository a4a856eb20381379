package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OwnerLocal is the request-locals key under which the authenticated
// owner id is stored. The import/export pipeline only ever sees this id.
const OwnerLocal = "owner_id"

// AuthMiddleware validates the API key and resolves the owning account.
func AuthMiddleware(db *pgxpool.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{
				"error":   "missing_api_key",
				"message": "API key is required. Use Authorization: Bearer YOUR_API_KEY",
			})
		}

		// Format: "Bearer ak_..."
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{
				"error":   "invalid_auth_format",
				"message": "Authorization header must be in format: Bearer YOUR_API_KEY",
			})
		}

		apiKey := strings.TrimSpace(parts[1])
		if !strings.HasPrefix(apiKey, "ak_") {
			return c.Status(401).JSON(fiber.Map{
				"error":   "invalid_api_key_format",
				"message": "API key must start with ak_",
			})
		}

		// Hash the key for database lookup
		hash := sha256.Sum256([]byte(apiKey))
		keyHash := hex.EncodeToString(hash[:])

		query := `
			SELECT id
			FROM account
			WHERE api_key_hash = $1
				AND is_active = true
		`

		var ownerID string
		if err := db.QueryRow(context.Background(), query, keyHash).Scan(&ownerID); err != nil {
			return c.Status(401).JSON(fiber.Map{
				"error":   "invalid_api_key",
				"message": "The provided API key is invalid or has been revoked",
			})
		}

		// Update last_seen_at asynchronously (non-blocking)
		go updateLastSeen(db, ownerID)

		c.Locals(OwnerLocal, ownerID)

		return c.Next()
	}
}

// Owner returns the authenticated owner id, or "" when unauthenticated.
func Owner(c *fiber.Ctx) string {
	if id, ok := c.Locals(OwnerLocal).(string); ok {
		return id
	}
	return ""
}

func updateLastSeen(db *pgxpool.Pool, ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		UPDATE account
		SET last_seen_at = NOW()
		WHERE id = $1
	`
	_, _ = db.Exec(ctx, query, ownerID)
}
