package auth

import (
	"net/http"

	"github.com/google/uuid"
)

// AccountHeader lets local callers act as an account holder when
// authentication is disabled.
const AccountHeader = "X-Portal-Account"

type NoneAuthenticator struct{}

func NewNoneAuthenticator() (*NoneAuthenticator, error) {
	return &NoneAuthenticator{}, nil
}

func (n *NoneAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := User{Subject: "admin", Role: RoleAdmin}
		if v := r.Header.Get(AccountHeader); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				http.Error(w, "invalid account header", http.StatusBadRequest)
				return
			}
			user = User{Subject: id.String(), Role: RoleAccountHolder, AccountID: &id}
		}

		next.ServeHTTP(w, r.WithContext(NewUserContext(r.Context(), user)))
	})
}
