// internal/api/identity/identity.go

// Package identity is the narrow seam to the external authentication
// collaborator: it resolves an already-authenticated user for a request and
// carries that user through the context. Credential checking and token
// issuance live outside this service.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/pistareserva/courtbook/internal/db"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Provider resolves the authenticated user for a request, or nil when the
// request carries no identity.
type Provider interface {
	UserFromRequest(r *http.Request) (*db.User, error)
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *db.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

func UserFromContext(ctx context.Context) *db.User {
	if ctx == nil {
		return nil
	}
	user, ok := ctx.Value(userContextKey{}).(*db.User)
	if !ok {
		return nil
	}
	return user
}

// RequireUser returns the context user or ErrUnauthenticated.
func RequireUser(ctx context.Context) (*db.User, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// RequireStaff returns the context user when it has the staff flag.
func RequireStaff(ctx context.Context) (*db.User, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsStaff {
		return nil, ErrForbidden
	}
	return user, nil
}

// HeaderProvider trusts the authenticated-email header stamped by the
// upstream auth proxy and loads the matching account. It must only be
// deployed behind a gateway that strips the header from client requests.
type HeaderProvider struct {
	Queries *db.Queries
	Header  string
}

const defaultIdentityHeader = "X-Authenticated-Email"

func (p *HeaderProvider) UserFromRequest(r *http.Request) (*db.User, error) {
	header := p.Header
	if header == "" {
		header = defaultIdentityHeader
	}
	email := strings.TrimSpace(r.Header.Get(header))
	if email == "" {
		return nil, nil
	}

	user, err := p.Queries.GetUserByEmail(r.Context(), strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
