package roles

import "testing"

func TestCapabilitiesByRole(t *testing.T) {
	tests := []struct {
		role Role
		want Capabilities
	}{
		{RoleOwner, Capabilities{CanPropose: true, CanVote: true, CanComment: true, CanChangeCollaborationState: true}},
		{RoleMember, Capabilities{CanPropose: true, CanVote: true, CanComment: true}},
		{RoleGuest, Capabilities{CanVote: true, CanComment: true}},
	}
	for _, tt := range tests {
		if got := For(tt.role); got != tt.want {
			t.Errorf("For(%s) = %+v, want %+v", tt.role, got, tt.want)
		}
	}
}

func TestUnknownRoleIsReadOnly(t *testing.T) {
	for _, raw := range []string{"", "admin", "sommelier", "OWNER"} {
		caps := For(Normalize(raw))
		if caps != (Capabilities{}) {
			t.Errorf("role %q should resolve to read-only, got %+v", raw, caps)
		}
	}
}

func TestNormalizeKeepsKnownRoles(t *testing.T) {
	for _, role := range []Role{RoleOwner, RoleMember, RoleGuest} {
		if got := Normalize(string(role)); got != role {
			t.Errorf("Normalize(%s) = %s", role, got)
		}
	}
}
