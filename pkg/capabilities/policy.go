// Package capabilities implements Rurtle capability policy building and
// enforcement.
package capabilities

import (
	"fmt"
	"sort"
)

// Capability identifiers. Builtins that touch the host declare one of these.
const (
	Draw       = "draw"
	Prompt     = "prompt"
	Screenshot = "screenshot"
)

// Known lists every capability in a stable order.
var Known = []string{Draw, Prompt, Screenshot}

// Policy defines which capabilities are allowed for program execution.
type Policy struct {
	Allowed map[string]bool
}

// IsAllowed checks whether a capability is permitted by this policy.
func (p *Policy) IsAllowed(cap string) bool {
	if p == nil || p.Allowed == nil {
		return true
	}
	return p.Allowed[cap]
}

// Names returns the allowed capabilities, sorted.
func (p *Policy) Names() []string {
	var out []string
	for _, cap := range Known {
		if p.IsAllowed(cap) {
			out = append(out, cap)
		}
	}
	sort.Strings(out)
	return out
}

// FromLists builds a policy from allow and deny lists. An empty allow list
// means every known capability. Deny overrides allow.
func FromLists(allow, deny []string) (*Policy, error) {
	for _, list := range [][]string{allow, deny} {
		for _, cap := range list {
			if !isKnown(cap) {
				return nil, fmt.Errorf("unknown capability %q", cap)
			}
		}
	}
	if len(allow) == 0 && len(deny) == 0 {
		return AllowAll(), nil
	}
	if len(allow) == 0 {
		allow = Known
	}

	allowed := make(map[string]bool)
	for _, cap := range allow {
		allowed[cap] = true
	}
	for _, cap := range deny {
		delete(allowed, cap)
	}
	return &Policy{Allowed: allowed}, nil
}

func isKnown(cap string) bool {
	for _, k := range Known {
		if k == cap {
			return true
		}
	}
	return false
}

// AllowAll returns a policy that permits all capabilities.
func AllowAll() *Policy {
	return &Policy{Allowed: nil} // nil signals "allow all" in the evaluator
}

// DenyAll returns a policy that denies all capabilities. Pure builtins keep
// working; drawing, prompting and screenshots fail with E_CAP_DENIED.
func DenyAll() *Policy {
	return &Policy{Allowed: make(map[string]bool)}
}
