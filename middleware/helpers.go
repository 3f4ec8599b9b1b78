package middleware

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/federation-registry/models"
)

// Определяем константы для имен JWT claims
const (
	jwtClaimUserID   = "user_id"
	jwtClaimRole     = "role"
	jwtClaimRegionID = "region_id"
)

// ActorFromClaims builds the caller from token claims. region_id is optional
// for reviewers and required for regional representatives.
func ActorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	userID, err := positiveIntClaim(claims, jwtClaimUserID)
	if err != nil {
		return models.Actor{}, err
	}

	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return models.Actor{}, fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	roleStr, ok := roleClaim.(string)
	if !ok {
		return models.Actor{}, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}
	role := models.UserRole(roleStr)
	switch role {
	case models.RoleAdmin, models.RoleEditor, models.RoleRegionalRepresentative:
	default:
		return models.Actor{}, fmt.Errorf("invalid role value in claim: %q", roleStr)
	}

	actor := models.Actor{UserID: userID, Role: role}
	if _, present := claims[jwtClaimRegionID]; present && claims[jwtClaimRegionID] != nil {
		regionID, err := positiveIntClaim(claims, jwtClaimRegionID)
		if err != nil {
			return models.Actor{}, err
		}
		actor.RegionID = &regionID
	}
	if role == models.RoleRegionalRepresentative && actor.RegionID == nil {
		return models.Actor{}, fmt.Errorf("missing '%s' claim for role %s", jwtClaimRegionID, role)
	}
	return actor, nil
}

// positiveIntClaim accepts JSON numbers and numeric strings.
func positiveIntClaim(claims jwt.MapClaims, name string) (int, error) {
	raw, ok := claims[name]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", name)
	}

	var value int
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %f", name, v)
		}
		value = int(v)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid '%s' claim: %q", name, v)
		}
		value = parsed
	default:
		return 0, fmt.Errorf("invalid type for '%s' claim: expected number or string, got %T", name, raw)
	}

	if value <= 0 {
		return 0, fmt.Errorf("invalid value in '%s' claim: %d", name, value)
	}
	return value, nil
}
