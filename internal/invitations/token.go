// internal/invitations/token.go
package invitations

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the entropy of an invitation token. Tokens are bearer
// credentials: possession alone authorizes accept/reject.
const tokenBytes = 50

// newToken returns an opaque URL-safe single-use token.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invitation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
