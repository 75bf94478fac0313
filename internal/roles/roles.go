// Package roles maps a participant's membership role to the collaborative
// actions they may take. Pure functions, no state; callers check the relevant
// capability before invoking a mutating operation.
package roles

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
	RoleGuest  Role = "guest"
)

// Capabilities is the action set granted by a role. The zero value is
// read-only, which is also what unknown roles resolve to.
type Capabilities struct {
	CanPropose                  bool
	CanVote                     bool
	CanComment                  bool
	CanChangeCollaborationState bool
}

func For(role Role) Capabilities {
	switch role {
	case RoleOwner:
		return Capabilities{
			CanPropose:                  true,
			CanVote:                     true,
			CanComment:                  true,
			CanChangeCollaborationState: true,
		}
	case RoleMember:
		return Capabilities{
			CanPropose: true,
			CanVote:    true,
			CanComment: true,
		}
	case RoleGuest:
		return Capabilities{
			CanVote:    true,
			CanComment: true,
		}
	default:
		return Capabilities{}
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleOwner, RoleMember, RoleGuest:
		return Role(role)
	default:
		return Role("")
	}
}
