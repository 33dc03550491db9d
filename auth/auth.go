package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

type Claims string

var USER_ID_CLAIM = Claims("userId")
var TENANT_CLAIM = Claims("tenantId")
var USER_TYPE_CLAIM = Claims("userType")

var (
	errNoSecret = errors.New("access secret is not configured")
	errBadTtl   = errors.New("token ttl must be positive")
	errNoExpiry = errors.New("token has no expiry")
)

// VerifyTokenHttpMiddleware accepts requests carrying an HS256 bearer token signed
// with secret and puts its claims in the request context.
func VerifyTokenHttpMiddleware(secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Error("Missing Authorization header", zap.String("path", r.URL.Path))
				http.Error(w, "missing or malformed token", http.StatusUnauthorized)
				return
			}

			splits := strings.SplitN(authHeader, " ", 2)

			// Check for Bearer scheme (case-insensitive)
			if len(splits) < 2 || !strings.EqualFold(splits[0], "bearer") {
				logger.Error("Bad authorization string", zap.String("path", r.URL.Path))
				http.Error(w, "missing or malformed token", http.StatusUnauthorized)
				return
			}

			userId, tenant, userType, err := decryptToken(secret, splits[1])
			if err != nil {
				logger.Error("Error decrypting token", zap.Error(err))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), USER_ID_CLAIM, userId)
			ctx = context.WithValue(ctx, TENANT_CLAIM, tenant)
			ctx = context.WithValue(ctx, USER_TYPE_CLAIM, userType)

			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetToken issues an API token for userId in tenant that expires after ttl.
func GetToken(secret, tenant, userId, userType string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errNoSecret
	}
	if ttl <= 0 {
		return "", errBadTtl
	}

	now := time.Now()
	atClaims := jwt.StandardClaims{}
	atClaims.IssuedAt = now.Unix()
	atClaims.ExpiresAt = now.Add(ttl).Unix()
	atClaims.Id = userId
	atClaims.Audience = tenant
	atClaims.Subject = userType

	at := jwt.NewWithClaims(jwt.SigningMethodHS256, atClaims)
	token, err := at.SignedString([]byte(secret))
	if err != nil {
		logger.Error("Error signing token", zap.Error(err))
		return "", err
	}
	return token, nil
}

func GetUserIdAndTenant(ctx context.Context) (string, string) {
	var userId, tenant string

	if v, ok := ctx.Value(USER_ID_CLAIM).(string); ok {
		userId = v
	}
	if v, ok := ctx.Value(TENANT_CLAIM).(string); ok {
		tenant = v
	}

	return userId, tenant
}

func GetUserType(ctx context.Context) string {
	if v, ok := ctx.Value(USER_TYPE_CLAIM).(string); ok {
		return v
	}
	return ""
}

// returns userId, tenant, userType
func decryptToken(secret, token string) (string, string, string, error) {
	if secret == "" {
		return "", "", "", errNoSecret
	}

	parsedToken, err := jwt.ParseWithClaims(
		token,
		&jwt.StandardClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
	if err != nil {
		return "", "", "", err
	}

	claims, ok := parsedToken.Claims.(*jwt.StandardClaims)
	if !ok || !parsedToken.Valid {
		return "", "", "", errors.New("failed reading claims")
	}
	// jwt-go only enforces exp when present
	if claims.ExpiresAt == 0 {
		return "", "", "", errNoExpiry
	}

	return claims.Id, claims.Audience, claims.Subject, nil
}
