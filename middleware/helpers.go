package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

// GetUserIDFromContext extracts the authenticated user's id from the claims
// placed in the context by Authenticate. JSON decoding turns numeric claims
// into float64, so both float64 and string encodings are accepted.
func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("user claims not found in context")
	}

	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return 0, fmt.Errorf("missing %q claim in token", jwtClaimUserID)
	}

	switch v := userIDClaim.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%q claim is not an integer: %f", jwtClaimUserID, v)
		}
		userID := int(v)
		if userID <= 0 {
			return 0, fmt.Errorf("invalid user id in %q claim: %d", jwtClaimUserID, userID)
		}
		return userID, nil
	case string:
		userID, err := strconv.Atoi(v)
		if err != nil || userID <= 0 {
			return 0, fmt.Errorf("invalid user id in %q claim: %s", jwtClaimUserID, v)
		}
		return userID, nil
	default:
		return 0, fmt.Errorf("invalid type for %q claim: %T", jwtClaimUserID, userIDClaim)
	}
}

// GetIsAdminFromContext reports whether the token carries the admin flag.
// Absent or malformed flags read as false; authorization decisions are still
// made against the database by the service layer.
func GetIsAdminFromContext(ctx context.Context) bool {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return false
	}
	isAdmin, _ := claims[jwtClaimIsAdmin].(bool)
	return isAdmin
}
