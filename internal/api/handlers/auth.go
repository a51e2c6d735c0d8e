package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/config"
	"github.com/kueapp/backend/internal/email"
	"github.com/kueapp/backend/internal/models"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a staff account and emails a verification link. The raw
// token goes out by email only; the database keeps its sha256.
func Register(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			FullName string `json:"full_name"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
			return
		}
		emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
		if emailAddr == "" || !strings.Contains(emailAddr, "@") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "valid email required"})
			return
		}
		if len(req.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		ctx := context.Background()
		// Rate limit per email
		if rdb != nil && cfg.EmailRateLimitSeconds > 0 {
			key := fmt.Sprintf("register_rate:%s", emailAddr)
			ok, err := rdb.SetNX(ctx, key, "1", time.Duration(cfg.EmailRateLimitSeconds)*time.Second).Result()
			if err == nil && !ok {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again shortly"})
				return
			}
		}

		var exists int
		if err := db.Get(&exists, `SELECT COUNT(*) FROM users WHERE email = $1`, emailAddr); err != nil {
			respondError(c, err)
			return
		}
		if exists > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, err)
			return
		}

		token := generateToken()
		expiresAt := time.Now().Add(time.Duration(cfg.EmailVerifyTTLHours) * time.Hour)
		userID := uuid.New().String()
		_, err = db.Exec(`
			INSERT INTO users (id, email, password_hash, full_name, roles, email_verify_token_hash, email_verify_token_expires_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		`, userID, emailAddr, string(hash), strings.TrimSpace(req.FullName), pq.StringArray{"staff"}, sha256Hex(token), expiresAt)
		if err != nil {
			respondError(c, err)
			return
		}

		if err := email.Default.SendVerificationEmail(ctx, emailAddr, token); err != nil {
			log.Printf("Failed to send verification email to %s: %v", emailAddr, err)
		}

		log.Printf("[AUTH] Registered user %s (%s)", userID, emailAddr)
		c.JSON(http.StatusCreated, gin.H{"id": userID, "email": emailAddr, "verification_required": true})
	}
}

// VerifyEmail consumes a verification token.
func VerifyEmail(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Token string `json:"token"`
		}
		if err := c.BindJSON(&req); err != nil || req.Token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}

		res, err := db.Exec(`
			UPDATE users
			SET email_verified_at = NOW(), email_verify_token_hash = NULL, email_verify_token_expires_at = NULL
			WHERE email_verify_token_hash = $1 AND email_verify_token_expires_at > NOW()
		`, sha256Hex(req.Token))
		if err != nil {
			respondError(c, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"verified": true})
	}
}

// Login checks credentials and issues a JWT.
func Login(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
			return
		}
		emailAddr := strings.ToLower(strings.TrimSpace(req.Email))

		var user models.User
		err := db.Get(&user, `
			SELECT id, email, password_hash, full_name, roles, email_verified_at, created_at
			FROM users WHERE email = $1
		`, emailAddr)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			respondError(c, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if !user.EmailVerifiedAt.Valid {
			c.JSON(http.StatusForbidden, gin.H{"error": "email not verified"})
			return
		}

		exp := time.Now().Add(time.Duration(cfg.JWTExpiryHours) * time.Hour)
		claims := jwt.MapClaims{
			"user_id": user.ID,
			"email":   user.Email,
			"roles":   []string(user.Roles),
			"exp":     exp.Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": signed, "user": user})
	}
}

// ForgotPassword issues a reset token. The response never reveals whether
// the email exists.
func ForgotPassword(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.BindJSON(&req); err != nil || req.Email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email required"})
			return
		}
		emailAddr := strings.ToLower(strings.TrimSpace(req.Email))

		ctx := context.Background()
		if rdb != nil && cfg.EmailRateLimitSeconds > 0 {
			key := fmt.Sprintf("forgot_rate:%s", emailAddr)
			ok, err := rdb.SetNX(ctx, key, "1", time.Duration(cfg.EmailRateLimitSeconds)*time.Second).Result()
			if err == nil && !ok {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again shortly"})
				return
			}
		}

		token := generateToken()
		expiresAt := time.Now().Add(time.Duration(cfg.PasswordResetTTLHours) * time.Hour)
		res, err := db.Exec(`
			UPDATE users SET password_reset_token_hash = $2, password_reset_token_expires_at = $3
			WHERE email = $1
		`, emailAddr, sha256Hex(token), expiresAt)
		if err != nil {
			respondError(c, err)
			return
		}
		if n, _ := res.RowsAffected(); n > 0 {
			if err := email.Default.SendPasswordResetEmail(ctx, emailAddr, token); err != nil {
				log.Printf("Failed to send reset email to %s: %v", emailAddr, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"sent": true})
	}
}

// ResetPassword consumes a reset token and sets a new password.
func ResetPassword(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := c.BindJSON(&req); err != nil || req.Token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and password required"})
			return
		}
		if len(req.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, err)
			return
		}

		res, err := db.Exec(`
			UPDATE users
			SET password_hash = $2, password_reset_token_hash = NULL, password_reset_token_expires_at = NULL
			WHERE password_reset_token_hash = $1 AND password_reset_token_expires_at > NOW()
		`, sha256Hex(req.Token), string(hash))
		if err != nil {
			respondError(c, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reset": true})
	}
}

// Me returns the authenticated user.
func Me(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		err := db.Get(&user, `
			SELECT id, email, password_hash, full_name, roles, email_verified_at, created_at
			FROM users WHERE id = $1
		`, c.GetString("user_id"))
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// AuthMiddleware validates bearer JWT and sets user_id and roles in context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var roles []string
		if raw, ok := claims["roles"].([]interface{}); ok {
			for _, r := range raw {
				if s, ok := r.(string); ok {
					roles = append(roles, s)
				}
			}
		}

		c.Set("user_id", userID)
		c.Set("roles", roles)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller carries the role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := scopeFrom(c)
		for _, r := range scope.Roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}
