package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin is the only role tokens are issued for
const RoleAdmin = "admin"

// JWT Secret Key, loaded from JWT_SECRET at startup
var JwtKey []byte

// ErrInvalidCredentials is returned for any login failure
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims represents the JWT claims
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// GenerateJWT generates a token valid for 12 hours
func GenerateJWT(email, role string) (string, error) {
	if len(JwtKey) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	claims := &Claims{
		Email: email,
		Role:  role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(12 * time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtKey)
}

// ParseJWT validates tokenStr and returns its claims
func ParseJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AdminCredentials checks operator logins against a bcrypt hash from the environment
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

// Check returns nil when email and password match
func (a AdminCredentials) Check(email, password string) error {
	if a.Email == "" || a.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if !strings.EqualFold(strings.TrimSpace(email), a.Email) {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
