package policy

import "strings"

// document is the tree Load expressions walk: requester.<attr>, resource, action.
func (ctx RequestContext) document() map[string]any {
	requester := make(map[string]any, len(ctx.Requester))
	for k, v := range ctx.Requester {
		requester[k] = v
	}
	return map[string]any{
		"requester": requester,
		"resource":  ctx.Resource,
		"action":    ctx.Action,
	}
}

// lookup resolves a dotted path such as "requester.role".
func lookup(doc map[string]any, path string) (any, bool) {
	var node any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[part]; !ok {
			return nil, false
		}
	}
	return node, true
}
