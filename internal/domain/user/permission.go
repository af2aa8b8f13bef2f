package user

import "strings"

// Permission is "<resource>.<action>".
type Permission string

const (
	PermissionPayrollView    Permission = "payroll.view"
	PermissionPayrollPreview Permission = "payroll.preview"
	PermissionPayrollRun     Permission = "payroll.run"
	PermissionPayrollClose   Permission = "payroll.close"
)

// Split returns the resource and action parts.
func (p Permission) Split() (resource, action string) {
	resource, action, _ = strings.Cut(string(p), ".")
	return resource, action
}

// RolePermissions is the default policy loaded into the enforcer at startup.
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionPayrollView,
		PermissionPayrollPreview,
		PermissionPayrollRun,
		PermissionPayrollClose,
	},
	RoleManager: {
		// Managers prepare payroll; only owners close a period, by
		// ClosePeriod or by a run that is not kept open
		PermissionPayrollView,
		PermissionPayrollPreview,
		PermissionPayrollRun,
	},
	RoleEmployee: {},
	RolePending:  {},
}
