package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Role string

const (
	RoleAdmin         Role = "admin"
	RoleAccountHolder Role = "account_holder"
)

type userKeyType struct{}

var userKey userKeyType

// User is the authenticated caller. AccountID is set for account holders.
type User struct {
	Subject   string
	Role      Role
	AccountID *uuid.UUID
	Token     *jwt.Token
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Owns reports whether the user is the holder of accountID.
func (u User) Owns(accountID uuid.UUID) bool {
	return u.AccountID != nil && *u.AccountID == accountID
}

func UserFromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return User{}, false
	}
	return val.(User), true
}

func MustHaveUser(ctx context.Context) User {
	user, found := UserFromContext(ctx)
	if !found {
		zap.S().Named("auth").Panic("failed to find user in context")
	}
	return user
}

func NewUserContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
