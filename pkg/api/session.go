package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

// Session headers. The portal trusts whatever sits in front of it to set them.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
	HeaderUserName = "X-User-Name"
)

// ErrNoSession is returned when a request carries no identity.
var ErrNoSession = errors.New("no session identity on request")

type identityKey struct{}

// HeaderSession resolves the identity the session middleware attached to a
// request context.
type HeaderSession struct{}

func (HeaderSession) Current(ctx context.Context) (domain.Identity, error) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	if !ok {
		return domain.Identity{}, ErrNoSession
	}
	return id, nil
}

// IdentityFromRequest reads the session headers. A bare role such as
// "student" is turned into its prefix form "student:".
func IdentityFromRequest(r *http.Request) domain.Identity {
	role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))
	if role != "" && !strings.Contains(role, ":") {
		role += ":"
	}
	return domain.Identity{
		UserID:      strings.TrimSpace(r.Header.Get(HeaderUserID)),
		DisplayName: r.Header.Get(HeaderUserName),
		Role:        role,
	}
}

// sessionMiddleware attaches the header identity to the request context and
// rejects requests the session resolver cannot place.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := IdentityFromRequest(r); h.validate.Struct(id) == nil {
			ctx = context.WithValue(ctx, identityKey{}, id)
		}

		id, err := h.sessions.Current(ctx)
		if err == nil {
			err = h.validate.Struct(id)
		}
		if err != nil {
			h.logger.Warn("request without session identity",
				zap.String("path", r.URL.Path), zap.Error(err))
			WriteJSONError(w, http.StatusUnauthorized, "missing "+HeaderUserID+" or "+HeaderUserRole+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) identity(r *http.Request) (domain.Identity, error) {
	return h.sessions.Current(r.Context())
}
