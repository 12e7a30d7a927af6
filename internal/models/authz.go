package models

// HasAnyRole reports whether the caller holds at least one of the required roles.
func HasAnyRole(claims *JWTClaims, required ...UserRole) bool {
	if claims == nil {
		return false
	}
	for _, held := range claims.Roles {
		for _, want := range required {
			if held == want {
				return true
			}
		}
	}
	return false
}

// IsAdmin is shorthand for HasAnyRole(claims, RoleAdmin).
func IsAdmin(claims *JWTClaims) bool {
	return HasAnyRole(claims, RoleAdmin)
}

// IsOwner reports whether userID submitted the manuscript.
func IsOwner(m *Manuscript, userID string) bool {
	return m != nil && userID != "" && m.SubmittedBy == userID
}

// IsAssignedEditor reports whether userID is the manuscript's handling editor.
func IsAssignedEditor(m *Manuscript, userID string) bool {
	return m != nil && m.EditorID != nil && userID != "" && *m.EditorID == userID
}

// CanDecide covers the assigned editor and admin-equivalent roles.
func CanDecide(m *Manuscript, claims *JWTClaims) bool {
	if claims == nil {
		return false
	}
	return IsAdmin(claims) || IsAssignedEditor(m, claims.UserID)
}
