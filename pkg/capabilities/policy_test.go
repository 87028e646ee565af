package capabilities

import (
	"reflect"
	"testing"
)

func TestAllowAll(t *testing.T) {
	p := AllowAll()
	for _, cap := range Known {
		if !p.IsAllowed(cap) {
			t.Errorf("%s should be allowed", cap)
		}
	}
	var nilPolicy *Policy
	if !nilPolicy.IsAllowed(Draw) {
		t.Error("nil policy allows everything")
	}
}

func TestDenyAll(t *testing.T) {
	p := DenyAll()
	if p.IsAllowed(Draw) || len(p.Names()) != 0 {
		t.Error("deny-all should allow nothing")
	}
}

func TestFromLists(t *testing.T) {
	tests := []struct {
		name        string
		allow, deny []string
		want        []string
	}{
		{"empty lists allow all", nil, nil, []string{"draw", "prompt", "screenshot"}},
		{"explicit allow", []string{Draw}, nil, []string{"draw"}},
		{"deny only", nil, []string{Screenshot}, []string{"draw", "prompt"}},
		{"deny overrides allow", []string{Draw, Prompt}, []string{Prompt}, []string{"draw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromLists(tt.allow, tt.deny)
			if err != nil {
				t.Fatal(err)
			}
			if got := p.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Names() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromListsUnknown(t *testing.T) {
	if _, err := FromLists([]string{"network"}, nil); err == nil {
		t.Error("expected error for unknown capability")
	}
	if _, err := FromLists(nil, []string{"fs"}); err == nil {
		t.Error("expected error for unknown capability in deny")
	}
}
