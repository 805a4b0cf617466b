package shared

const (
	UserID    = "user_id"
	SessionID = "session_id"
	UserRole  = "user_role"

	RoleAdmin        = "admin"
	RoleDentist      = "dentist"
	RoleReceptionist = "receptionist"
	RolePatient      = "patient"
)
