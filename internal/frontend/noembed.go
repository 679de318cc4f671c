//go:build !embed

package frontend

import "net/http"

// Handler returns nil when the binary is built without -tags embed.
func Handler() http.Handler {
	return nil
}
