package domain

import "github.com/google/uuid"

// Role is the coarse authorization level of a session, as reported by
// the external identity provider.
type Role string

// Roles recognized by this service. The identity provider may define
// more; anything unrecognized carries no privileges here.
const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Identity is the session identity supplied by the external identity
// provider. This service only reads these fields; it never manages
// login or credential state.
type Identity struct {
	UUID      uuid.UUID `json:"uuid"`
	Role      Role      `json:"role"`
	CompanyID uuid.UUID `json:"company_id"`
	Verified  bool      `json:"verified"`
}

// CanExportAll reports whether this identity may export the full
// participant set.
func (i Identity) CanExportAll() bool {
	return i.Role == RoleAdmin
}

// CanExportCompany reports whether this identity may export the
// participants who visited its own company's booth.
func (i Identity) CanExportCompany() bool {
	if i.Role == RoleAdmin {
		return true
	}
	return i.Role == RoleStaff && i.Verified && i.CompanyID != uuid.Nil
}
