package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims carried by portal tokens. account_id is required for account holders.
type Claims struct {
	Role      Role   `json:"role"`
	AccountID string `json:"account_id,omitempty"`
	jwt.RegisteredClaims
}

type JWTAuthenticator struct {
	keyFn  func(t *jwt.Token) (any, error)
	issuer string
}

// NewJWTAuthenticator validates HS256 tokens signed with secret.
func NewJWTAuthenticator(secret []byte, issuer string) (*JWTAuthenticator, error) {
	return NewJWTAuthenticatorWithKeyFn(func(*jwt.Token) (any, error) { return secret, nil }, issuer)
}

func NewJWTAuthenticatorWithKeyFn(keyFn func(t *jwt.Token) (any, error), issuer string) (*JWTAuthenticator, error) {
	return &JWTAuthenticator{keyFn: keyFn, issuer: issuer}, nil
}

func (j *JWTAuthenticator) Authenticate(token string) (User, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	var claims Claims
	t, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, j.keyFn)
	if err != nil {
		zap.S().Named("auth").Debugw("failed to parse or validate token", "error", err)
		return User{}, fmt.Errorf("failed to authenticate token: %w", err)
	}
	if !t.Valid {
		return User{}, errors.New("failed to parse or validate token")
	}

	return j.parseClaims(t, claims)
}

func (j *JWTAuthenticator) parseClaims(t *jwt.Token, claims Claims) (User, error) {
	switch claims.Role {
	case RoleAdmin:
		return User{Subject: claims.Subject, Role: RoleAdmin, Token: t}, nil
	case RoleAccountHolder:
		id, err := uuid.Parse(claims.AccountID)
		if err != nil {
			return User{}, fmt.Errorf("account holder token has an invalid account_id: %w", err)
		}
		return User{Subject: claims.Subject, Role: RoleAccountHolder, AccountID: &id, Token: t}, nil
	default:
		return User{}, fmt.Errorf("unknown role %q", claims.Role)
	}
}

func (j *JWTAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || accessToken == "" {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		user, err := j.Authenticate(accessToken)
		if err != nil {
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(NewUserContext(r.Context(), user)))
	})
}
