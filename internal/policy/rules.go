package policy

import (
	"github.com/robtrove/TroveCRM/internal/domain"
)

const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	// ActionManage covers settings and user administration.
	ActionManage = "manage"
)

func load(key string) Expr {
	return Expr{Operator: "Load", Args: []Expr{{Const: key}}}
}

func roleIs(role domain.Role) Expr {
	return Expr{Operator: "Eq", Args: []Expr{load("requester.role"), {Const: string(role)}}}
}

func resourceIn(resources ...string) Expr {
	list := make([]any, len(resources))
	for i, r := range resources {
		list[i] = r
	}
	return Expr{Operator: "Contains", Args: []Expr{{Const: list}, load("resource")}}
}

func and(args ...Expr) Expr {
	return Expr{Operator: "And", Args: args}
}

func or(args ...Expr) Expr {
	return Expr{Operator: "Or", Args: args}
}

func not(arg Expr) Expr {
	return Expr{Operator: "Not", Args: []Expr{arg}}
}

// unknownRoleDeny shuts out sessions whose role is no longer defined.
var unknownRoleDeny = Stmt{
	Emit:      "deny",
	Condition: not(or(roleIs(domain.RoleAdmin), roleIs(domain.RoleSupport), roleIs(domain.RoleSales))),
}

var adminAllow = Stmt{Emit: "allow", Condition: roleIs(domain.RoleAdmin)}

var salesNoSupportWrites = Stmt{
	Emit:      "deny",
	Condition: and(roleIs(domain.RoleSales), resourceIn(domain.CollectionTickets, domain.CollectionArticles)),
}

// DefaultPolicy is the role policy of the service.
func DefaultPolicy() Policy {
	return Policy{
		Statements: map[string][]Stmt{
			ActionRead:   {unknownRoleDeny},
			ActionCreate: {unknownRoleDeny, adminAllow, salesNoSupportWrites},
			ActionUpdate: {unknownRoleDeny, adminAllow, salesNoSupportWrites},
			ActionDelete: {
				unknownRoleDeny,
				adminAllow,
				salesNoSupportWrites,
				{
					Emit: "deny",
					Condition: and(
						roleIs(domain.RoleSupport),
						resourceIn(domain.CollectionCustomers, domain.CollectionDeals, domain.CollectionCampaigns),
					),
				},
			},
			ActionManage: {unknownRoleDeny, adminAllow},
		},
		Defaults: map[string]bool{
			ActionRead:   true,
			ActionCreate: true,
			ActionUpdate: true,
			ActionDelete: true,
			ActionManage: false,
		},
	}
}

type Authorizer struct {
	policy Policy
}

func NewAuthorizer(p Policy) *Authorizer {
	return &Authorizer{policy: p}
}

// Authorize returns domain.ErrForbidden when role may not perform action on resource.
func (a *Authorizer) Authorize(role domain.Role, resource, action string) error {
	ctx := RequestContext{
		Requester: map[string]any{"role": string(role)},
		Resource:  resource,
		Action:    action,
	}
	if Summarize(Evaluate(a.policy, ctx), a.policy.Defaults[action]) {
		return nil
	}
	return domain.ErrForbidden
}
