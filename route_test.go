package talon

import (
	"testing"

	"github.com/talonkv/talon-go/core"
)

func TestRouteMulti(t *testing.T) {
	tests := []struct {
		route Route
		multi bool
	}{
		{RandomRoute, false},
		{AllNodesRoute, true},
		{AllPrimariesRoute, true},
		{NewSlotIDRoute(100, SlotTypePrimary), false},
		{NewSlotKeyRoute("user:1", SlotTypeReplica), false},
		{NewByAddressRoute("10.0.0.1", 7000), false},
	}
	for _, tc := range tests {
		if tc.route.Multi() != tc.multi {
			t.Errorf("Route %v Multi() = %v, want %v", tc.route, tc.route.Multi(), tc.multi)
		}
	}
}

func TestByAddressRouteAddr(t *testing.T) {
	r := core.NewByAddressRoute("10.0.0.1", 7000)
	if r.Addr() != "10.0.0.1:7000" {
		t.Errorf("Addr = %q", r.Addr())
	}
}

func TestClusterValueSingle(t *testing.T) {
	v := SingleValue("PONG")
	if v.IsMulti() {
		t.Error("SingleValue should not be multi")
	}
	if v.Single() != "PONG" {
		t.Errorf("Single = %q", v.Single())
	}
}

func TestClusterValueMulti(t *testing.T) {
	v := MultiValue(map[string]int64{"n1:7000": 1, "n2:7000": 2})
	if !v.IsMulti() {
		t.Error("MultiValue should be multi")
	}
	if v.Multi()["n1:7000"] != 1 {
		t.Errorf("Multi = %v", v.Multi())
	}
}

func TestClusterValueOfRejectsNonMapForMultiRoute(t *testing.T) {
	_, err := clusterValueOf[string]("oops", AllNodesRoute, toString)
	if err == nil {
		t.Error("Expected error for non-map reply on multi route")
	}
}
