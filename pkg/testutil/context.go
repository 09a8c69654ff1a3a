package testutil

import (
	"net/http"

	"lifeline/internal/token"
)

// WithCaller attaches verified claims for email to the request, as the
// authentication middleware would. The embedded role is left
// as donor because the gate reads the real role from the directory.
func WithCaller(req *http.Request, email string) *http.Request {
	claims := &token.Claims{Email: email, Role: "donor", Status: "active"}
	return req.WithContext(token.WithClaims(req.Context(), claims))
}
