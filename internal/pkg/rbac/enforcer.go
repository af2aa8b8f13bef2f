package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Enforcer answers role/permission checks from an in-memory casbin policy.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads one policy line per role permission.
func NewEnforcer(policy map[user.Role][]user.Permission) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rbac model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create rbac enforcer: %w", err)
	}

	for role, permissions := range policy {
		for _, permission := range permissions {
			resource, action := permission.Split()
			if _, err := e.AddPolicy(string(role), resource, action); err != nil {
				return nil, fmt.Errorf("failed to add policy %s %s: %w", role, permission, err)
			}
		}
	}

	return &Enforcer{enforcer: e}, nil
}

func (e *Enforcer) Allowed(role user.Role, permission user.Permission) (bool, error) {
	resource, action := permission.Split()
	return e.enforcer.Enforce(string(role), resource, action)
}
