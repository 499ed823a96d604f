package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const ActionView = "view"

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Enforcer answers page access questions from a casbin policy generated from
// VisiblePages.
type Enforcer struct {
	e *casbin.SyncedEnforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	for _, role := range Roles {
		for _, page := range VisiblePages(role) {
			if _, err := e.AddPolicy(string(role), string(page), ActionView); err != nil {
				return nil, fmt.Errorf("add policy %s/%s: %w", role, page, err)
			}
		}
	}
	return &Enforcer{e: e}, nil
}

func (e *Enforcer) CanView(role Role, page Page) bool {
	ok, err := e.e.Enforce(string(role), string(page), ActionView)
	return err == nil && ok
}
