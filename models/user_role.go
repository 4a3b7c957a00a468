package models

type UserRole string

const (
	ResidentRole UserRole = "RESIDENT_ROLE"
	StaffRole    UserRole = "STAFF_ROLE"
	AdminRole    UserRole = "ADMIN_ROLE"
)

var roleHumanName = map[UserRole]string{
	ResidentRole: "Resident",
	StaffRole:    "Barangay staff",
	AdminRole:    "Administrator",
}

func (r UserRole) ToHuman() string {
	if human, exist := roleHumanName[r]; exist {
		return human
	}
	return string(r)
}

func (r UserRole) IsStaff() bool {
	return r == StaffRole || r == AdminRole
}

const SystemUser = "system"

// Principal is the acting identity supplied by the session layer. It is passed
// explicitly into every handler call, never read from ambient state.
type Principal struct {
	UserID     string
	Role       UserRole
	BarangayID string
	FullName   string
	Email      string
}

func (p Principal) IsStaff() bool {
	return p.Role.IsStaff()
}
