package domain

// Permission represents the access level applied to a document page
type Permission int

const (
	// PermissionInternal is the default access level
	PermissionInternal Permission = iota

	// PermissionOrganization is treated identically to internal access;
	// the distinction only exists in the filename convention
	PermissionOrganization

	// PermissionRestricted limits page visibility to a configured group
	PermissionRestricted
)

// String returns the string representation of the permission
func (p Permission) String() string {
	switch p {
	case PermissionInternal:
		return "internal"
	case PermissionOrganization:
		return "organization"
	case PermissionRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// IsRestricted returns true if the permission requires a read restriction
func (p Permission) IsRestricted() bool {
	return p == PermissionRestricted
}
