package model

// Admin represents an operator allowed to sign in (armorer).
type Admin struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Matricula string `json:"matricula"`
	Role      string `json:"role"`
}

// Roles.
const (
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// ValidRole reports whether role is one of the known roles. There is no
// default: an empty role is invalid.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// Session is the signed-in identity passed explicitly to every mutating call.
type Session struct {
	AdminID   string `json:"admin_id"`
	Name      string `json:"name"`
	Matricula string `json:"matricula"`
	Role      string `json:"role"`
}

// IsSuperAdmin reports whether the session holds the super-administrator role.
func (s Session) IsSuperAdmin() bool {
	return s.Role == RoleSuperAdmin
}

// SessionFor builds the session of a signed-in admin.
func SessionFor(a *Admin) Session {
	return Session{AdminID: a.ID, Name: a.Name, Matricula: a.Matricula, Role: a.Role}
}
