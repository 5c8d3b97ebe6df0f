package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/ctxutil"
	"github.com/emotionalcenter/amistapp/internal/models"
)

// Claims токена провайдера идентификации. sub = id счёта, app_role = роль.
type Claims struct {
	AppRole string `json:"app_role"`
	jwt.RegisteredClaims
}

func (s *Server) parseToken(raw string) (ctxutil.Actor, error) {
	const op = "api.authenticate"
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return ctxutil.Actor{}, apperr.Wrap(op, apperr.ErrUnauthorized, err)
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return ctxutil.Actor{}, apperr.New(op, apperr.ErrUnauthorized, "subject is not an account id")
	}
	role := models.Role(c.AppRole)
	if !role.Valid() {
		return ctxutil.Actor{}, apperr.New(op, apperr.ErrUnauthorized, "unknown app_role %q", c.AppRole)
	}
	return ctxutil.Actor{ID: id, Role: role}, nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			s.writeError(w, r, apperr.New("api.authenticate", apperr.ErrUnauthorized, "bearer token required"))
			return
		}
		actor, err := s.parseToken(strings.TrimSpace(raw))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxutil.WithActor(r.Context(), actor)))
	})
}

func requireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a, ok := ctxutil.ActorFrom(r.Context()); !ok || a.Role != role {
				writeErrorBody(w, http.StatusForbidden, "forbidden", "only "+string(role)+"s may do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actor(r *http.Request) ctxutil.Actor {
	a, _ := ctxutil.ActorFrom(r.Context())
	return a
}
