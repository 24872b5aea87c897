package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robtrove/TroveCRM/internal/domain"
)

func TestEvalLoadEq(t *testing.T) {
	ctx := RequestContext{Requester: map[string]any{"role": "admin"}}

	result, err := Eval(ctx, roleIs(domain.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, true, result.Result)

	_, err = Eval(ctx, load("requester.team"))
	assert.Error(t, err)

	_, err = Eval(ctx, Expr{Operator: "Xor"})
	assert.Error(t, err)
}

func TestConclusionOr(t *testing.T) {
	assert.Equal(t, DENY, ALLOW.Or(DENY))
	assert.Equal(t, ALLOW, UNSET.Or(ALLOW))
	assert.Equal(t, NG, OK.Or(NG))
	assert.Equal(t, UNSET, UNSET.Or(UNSET))
}

func TestDefaultPolicy(t *testing.T) {
	a := NewAuthorizer(DefaultPolicy())

	cases := []struct {
		role     domain.Role
		resource string
		action   string
		allowed  bool
	}{
		{domain.RoleAdmin, domain.CollectionCustomers, ActionDelete, true},
		{domain.RoleAdmin, "settings", ActionManage, true},
		{domain.RoleSupport, domain.CollectionCustomers, ActionDelete, false},
		{domain.RoleSupport, domain.CollectionDeals, ActionDelete, false},
		{domain.RoleSupport, domain.CollectionTickets, ActionDelete, true},
		{domain.RoleSupport, domain.CollectionCustomers, ActionUpdate, true},
		{domain.RoleSales, domain.CollectionTickets, ActionUpdate, false},
		{domain.RoleSales, domain.CollectionArticles, ActionCreate, false},
		{domain.RoleSales, domain.CollectionDeals, ActionDelete, true},
		{domain.RoleSales, domain.CollectionTickets, ActionRead, true},
		{domain.RoleSales, "users", ActionManage, false},
		{domain.RoleSupport, "settings", ActionManage, false},
		{domain.Role("contractor"), domain.CollectionCustomers, ActionRead, false},
		{domain.Role("contractor"), domain.CollectionTickets, ActionUpdate, false},
		{domain.Role(""), domain.CollectionDeals, ActionRead, false},
	}
	for _, tc := range cases {
		err := a.Authorize(tc.role, tc.resource, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s %s %s", tc.role, tc.action, tc.resource)
		} else {
			assert.ErrorIs(t, err, domain.ErrForbidden, "%s %s %s", tc.role, tc.action, tc.resource)
		}
	}
}

func TestPolicyDecodesFromJSON(t *testing.T) {
	raw, err := json.Marshal(DefaultPolicy())
	require.NoError(t, err)

	var p Policy
	require.NoError(t, json.Unmarshal(raw, &p))

	a := NewAuthorizer(p)
	assert.ErrorIs(t, a.Authorize(domain.RoleSupport, domain.CollectionCampaigns, ActionDelete), domain.ErrForbidden)
	assert.NoError(t, a.Authorize(domain.RoleAdmin, domain.CollectionCampaigns, ActionDelete))
}

func TestLookupWalksRequestContext(t *testing.T) {
	doc := RequestContext{
		Requester: map[string]any{"role": "sales"},
		Resource:  domain.CollectionDeals,
		Action:    ActionDelete,
	}.document()

	v, ok := lookup(doc, "requester.role")
	assert.True(t, ok)
	assert.Equal(t, "sales", v)

	v, ok = lookup(doc, "resource")
	assert.True(t, ok)
	assert.Equal(t, domain.CollectionDeals, v)

	_, ok = lookup(doc, "resource.name")
	assert.False(t, ok)
	_, ok = lookup(doc, "requester.team")
	assert.False(t, ok)
}
