package auth

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/careerlink/portal-engine/internal/config"
)

type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

const (
	JWTAuthentication  string = "jwt"
	NoneAuthentication string = "none"
)

func NewAuthenticator(authConfig config.Auth) (Authenticator, error) {
	zap.S().Named("auth").Infof("authentication: '%s'", authConfig.AuthenticationType)

	switch authConfig.AuthenticationType {
	case JWTAuthentication:
		if authConfig.JWTSecret == "" {
			return nil, fmt.Errorf("jwt authentication needs a secret")
		}
		return NewJWTAuthenticator([]byte(authConfig.JWTSecret), authConfig.JWTIssuer)
	case NoneAuthentication, "":
		return NewNoneAuthenticator()
	default:
		return nil, fmt.Errorf("unknown authentication type %q", authConfig.AuthenticationType)
	}
}
