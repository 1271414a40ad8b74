package auth

import "slices"

// Permission is a named capability checked by the API.
type Permission string

const (
	PermEnodebRead     Permission = "enodeb:read"
	PermEnodebReboot   Permission = "enodeb:reboot"
	PermEnodebExchange Permission = "enodeb:exchange"
	PermAuditRead      Permission = "audit:read"
	PermOperatorManage Permission = "operator:manage"
)

var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermEnodebRead,
	},
	RoleOperator: {
		PermEnodebRead,
		PermEnodebReboot,
		PermEnodebExchange,
	},
	RoleAdmin: {
		PermEnodebRead,
		PermEnodebReboot,
		PermEnodebExchange,
		PermAuditRead,
		PermOperatorManage,
	},
}

// HasPermission reports whether role grants perm. Unknown roles grant nothing.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionsForRole returns a copy of the permissions of role, or nil.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}
