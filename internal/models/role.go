package models

// Role is the numeric account role carried on the wire and inside tokens.
type Role int

const (
	RoleSystemAdmin  Role = 1000 // identities from the admins collection
	RoleCitizen      Role = 3000
	RoleStationAdmin Role = 4000
	RoleOfficer      Role = 5000
)

// RegistrableRoles are the roles accepted by public registration.
var RegistrableRoles = []Role{RoleCitizen, RoleStationAdmin, RoleOfficer}

// Valid reports whether r may be chosen at registration.
func (r Role) Valid() bool {
	for _, v := range RegistrableRoles {
		if r == v {
			return true
		}
	}
	return false
}

func (r Role) IsCitizen() bool      { return r == RoleCitizen }
func (r Role) IsStationAdmin() bool { return r == RoleStationAdmin }
func (r Role) IsOfficer() bool      { return r == RoleOfficer }
func (r Role) IsSystemAdmin() bool  { return r == RoleSystemAdmin }

// DefaultActive is the activation state given to a freshly registered account.
// Citizens are usable immediately; police accounts wait for activation.
func (r Role) DefaultActive() bool { return r == RoleCitizen }

// RequiresVerifiedProfile reports whether identity documents must be on file
// before the account may file a complaint.
func (r Role) RequiresVerifiedProfile() bool { return r == RoleCitizen }

// CanAssign reports whether the role manages complaint assignment.
func (r Role) CanAssign() bool { return r == RoleStationAdmin }

// CanUpdatePoliceStatus reports whether the role works assigned complaints.
func (r Role) CanUpdatePoliceStatus() bool { return r == RoleOfficer }

func (r Role) String() string {
	switch r {
	case RoleSystemAdmin:
		return "system-admin"
	case RoleCitizen:
		return "citizen"
	case RoleStationAdmin:
		return "station-admin"
	case RoleOfficer:
		return "officer"
	}
	return "unknown"
}
