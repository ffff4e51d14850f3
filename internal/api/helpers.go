package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// requireUser validates the X-User-ID header and returns the user ID.
// Identity is header-asserted: this server trusts the gateway in front of it
// to have authenticated the caller.
func requireUser(header string) (string, error) {
	userID := strings.TrimSpace(header)
	if userID == "" {
		return "", huma.Error401Unauthorized("Missing X-User-ID header")
	}
	return userID, nil
}
