package models

type UserRole string

const (
	RoleAdmin                  UserRole = "admin"
	RoleEditor                 UserRole = "editor"
	RoleRegionalRepresentative UserRole = "regional_representative"
)

// IsReviewer reports whether the role may approve, reject and record results.
func (r UserRole) IsReviewer() bool {
	return r == RoleAdmin || r == RoleEditor
}

// Actor is the authenticated caller of a core operation, supplied by the
// identity provider and passed explicitly into every service method.
type Actor struct {
	UserID   int      `json:"user_id"`
	Role     UserRole `json:"role"`
	RegionID *int     `json:"region_id,omitempty"`
}

// InRegion reports whether the actor represents regionID.
func (a Actor) InRegion(regionID int) bool {
	return a.RegionID != nil && *a.RegionID == regionID
}
