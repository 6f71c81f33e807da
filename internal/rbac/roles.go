package rbac

// Role names as the CMS API spells them. Keep these stable; they are part of
// the token and profile contracts.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// Valid reports whether role is one the CMS knows about.
func Valid(role string) bool { return role == RoleUser || role == RoleAdmin }

// HomePath is where a freshly signed-in user lands.
func HomePath(role string) string {
	if IsAdmin(role) {
		return "/admin"
	}
	return "/articles"
}
