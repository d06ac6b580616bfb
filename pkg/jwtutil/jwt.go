package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/victorcamacaro253/farmacia-web/pkg/config"
)

// ClientClaims identifies an anonymous storefront client (one browser or device)
type ClientClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// RoleAdmin is the role carried by staff tokens
const RoleAdmin = "admin"

// AdminClaims identifies a staff member allowed to manage orders
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTUtil is a utility for client token operations
type JWTUtil struct {
	config *config.JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: config}
}

// Expiration returns the lifetime of issued tokens
func (j *JWTUtil) Expiration() time.Duration {
	return time.Duration(j.config.ExpirationHours) * time.Hour
}

// GenerateClientToken signs a token carrying the client id
func (j *JWTUtil) GenerateClientToken(clientID string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}
	if clientID == "" {
		return "", errors.New("client id is required")
	}

	now := time.Now()
	claims := ClientClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.Expiration())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses a client token
func (j *JWTUtil) ValidateToken(tokenString string) (*ClientClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := j.parse(tokenString, &ClientClaims{})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ClientClaims); ok && token.Valid && claims.ClientID != "" {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// GenerateAdminToken signs a staff token for subject
func (j *JWTUtil) GenerateAdminToken(subject string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}
	if subject == "" {
		return "", errors.New("subject is required")
	}

	now := time.Now()
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.Expiration())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateAdminToken validates a staff token. Client tokens carry no role and are rejected.
func (j *JWTUtil) ValidateAdminToken(tokenString string) (*AdminClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := j.parse(tokenString, &AdminClaims{})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AdminClaims); ok && token.Valid && claims.Role == RoleAdmin {
		return claims, nil
	}

	return nil, errors.New("token does not grant admin access")
}

func (j *JWTUtil) parse(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	return jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
}
