package rbac

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcer_DefaultPolicy(t *testing.T) {
	e, err := NewEnforcer(user.RolePermissions)
	require.NoError(t, err)

	tests := []struct {
		role       user.Role
		permission user.Permission
		want       bool
	}{
		{user.RoleOwner, user.PermissionPayrollRun, true},
		{user.RoleOwner, user.PermissionPayrollClose, true},
		{user.RoleManager, user.PermissionPayrollRun, true},
		{user.RoleManager, user.PermissionPayrollClose, false},
		{user.RoleEmployee, user.PermissionPayrollView, false},
		{user.RolePending, user.PermissionPayrollPreview, false},
		{user.Role("admin"), user.PermissionPayrollView, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.permission), func(t *testing.T) {
			allowed, err := e.Allowed(tt.role, tt.permission)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestEnforcer_CustomPolicy(t *testing.T) {
	e, err := NewEnforcer(map[user.Role][]user.Permission{
		user.RoleEmployee: {user.PermissionPayrollView},
	})
	require.NoError(t, err)

	allowed, err := e.Allowed(user.RoleEmployee, user.PermissionPayrollView)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = e.Allowed(user.RoleOwner, user.PermissionPayrollView)
	require.NoError(t, err)
	assert.False(t, allowed)
}
