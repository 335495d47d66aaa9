package metaroute

import (
	"strings"
)

const bearerPrefixLen = len("Bearer ")

// ExtractJwtToken returns the encoded token of a "Bearer <token>" Authorization
// header. The "Bearer" keyword is matched case-insensitively within the first
// seven characters.
func ExtractJwtToken(authorizationHeader string) (string, error) {
	if authorizationHeader == "" {
		return "", ErrUnauthorized("No authorization header found")
	}

	head := authorizationHeader[:min(bearerPrefixLen, len(authorizationHeader))]
	if !strings.Contains(strings.ToLower(head), "bearer") {
		return "", ErrUnauthorized("No bearer found")
	}

	token := authorizationHeader[len(head):]
	if token == "" {
		return "", ErrUnauthorized("No JWT token found")
	}
	return token, nil
}
