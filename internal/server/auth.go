package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
	commonhttp "github.com/sngm3741/store-audit-services/api/internal/interfaces/http/common"
)

type authClaims struct {
	jwt.RegisteredClaims
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Role              string `json:"role"`
}

// authMiddleware verifies the bearer token and stores the principal, role
// included, in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "cabeçalho Authorization em falta")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "indique um token Bearer")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "token de acesso vazio")
			return
		}

		claims, role, err := s.parseAuthToken(tokenString)
		if err != nil {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, err.Error())
			return
		}

		user := commonhttp.AuthenticatedUser{
			ID:       claims.Subject,
			Name:     claims.Name,
			Username: claims.PreferredUsername,
			Role:     role,
		}
		next.ServeHTTP(w, r.WithContext(commonhttp.ContextWithUser(r.Context(), user)))
	})
}

// parseAuthToken checks signature, issuer, audience and the role claim.
func (s *Server) parseAuthToken(tokenString string) (*authClaims, domain.Role, error) {
	if len(s.jwt.Secret) == 0 {
		return nil, "", fmt.Errorf("autenticação não configurada")
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.jwt.Secret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || !token.Valid {
		return nil, "", fmt.Errorf("token de acesso inválido")
	}
	if s.jwt.Issuer != "" && claims.Issuer != s.jwt.Issuer {
		return nil, "", fmt.Errorf("token de acesso inválido")
	}
	if claims.Subject == "" {
		return nil, "", fmt.Errorf("token de acesso inválido")
	}
	if s.jwtAudience != "" && !contains(claims.Audience, s.jwtAudience) {
		return nil, "", fmt.Errorf("token de acesso inválido")
	}

	role, err := domain.NewRole(claims.Role)
	if err != nil {
		return nil, "", fmt.Errorf("perfil de utilizador inválido")
	}
	return claims, role, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
