package rbac

// Role names. Keep these stable; they are carried in issued tokens.
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleAgent       = "agent"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func Valid(role string) bool {
	switch role {
	case RoleAdmin, RoleCoordinator, RoleAgent:
		return true
	default:
		return false
	}
}
