package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/savora/api/internal/rbac"
)

// Claims carries the resolved identity inside an access token. RoleCode
// and Permissions use the storage encodings (role smallint, capability
// bitmask) so the token stays compatible with the staff records it was
// minted from.
type Claims struct {
	UserID      uuid.UUID `json:"user_id"`
	RoleCode    int16     `json:"role"`
	Permissions int32     `json:"permissions"`
	jwt.RegisteredClaims
}

// Identity decodes the claims into an rbac.Identity, failing closed on an
// unknown role code.
func (c *Claims) Identity() (*rbac.Identity, error) {
	role, err := rbac.RoleFromCode(c.RoleCode)
	if err != nil {
		return nil, err
	}
	return &rbac.Identity{
		UserID:      c.UserID,
		Role:        role,
		Permissions: rbac.Decode(c.Permissions),
	}, nil
}

func GenerateToken(secret string, userID uuid.UUID, role rbac.Role, permissions int32) (string, error) {
	claims := Claims{
		UserID:      userID,
		RoleCode:    int16(role),
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func GenerateRefreshToken(secret string, userID uuid.UUID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
