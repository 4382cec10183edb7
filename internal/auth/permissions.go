package auth

import "slices"

// Wildcard grants every permission
const Wildcard = "*"

// RolePermissions maps each role to the permissions it grants
var RolePermissions = map[string][]string{
	"admin": {Wildcard},
	"manager": {
		"users:read", "users:create", "users:update",
		"operations:read", "operations:create", "operations:update", "operations:delete",
		"locations:read", "locations:create", "locations:update", "locations:delete",
		"integration-jobs:read", "integration-jobs:create", "integration-jobs:update", "integration-jobs:delete",
	},
	"user": {
		"operations:read", "operations:create", "operations:update",
		"locations:read",
		"integration-jobs:read",
	},
}

// PermissionsForRole returns a copy of the role's permissions; unknown roles get none
func PermissionsForRole(role string) []string {
	return slices.Clone(RolePermissions[role])
}

// HasPermission reports whether granted covers permission, honoring the wildcard
func HasPermission(granted []string, permission string) bool {
	return slices.Contains(granted, Wildcard) || slices.Contains(granted, permission)
}

// HasAllPermissions reports whether every required permission is granted.
// With exact set, the wildcard is treated as an ordinary string.
func HasAllPermissions(granted, required []string, exact bool) bool {
	for _, p := range required {
		if exact {
			if !slices.Contains(granted, p) {
				return false
			}
			continue
		}
		if !HasPermission(granted, p) {
			return false
		}
	}
	return true
}

// HasAnyRole reports whether at least one required role is held
func HasAnyRole(held, required []string) bool {
	for _, r := range required {
		if slices.Contains(held, r) {
			return true
		}
	}
	return false
}
