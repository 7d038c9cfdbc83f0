// Package policy decides what an actor may do with a content item. Every
// function here is a pure decision over snapshots supplied by the caller;
// nothing in this package touches the store.
package policy

type Visibility string

const (
	VisibilityPrivate      Visibility = "PRIVATE"
	VisibilityOrganization Visibility = "ORGANIZATION"
	VisibilityPublic       Visibility = "PUBLIC"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityOrganization, VisibilityPublic:
		return true
	}
	return false
}

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Actor identifies who is performing an operation. A nil *Actor means the
// request carried no resolvable identity.
type Actor struct {
	ID    string
	Email string
}

// Memberships maps organization id to the actor's role there. A user holds
// at most one role per organization.
type Memberships map[string]Role

// Resource is the snapshot of a content item the evaluator needs.
type Resource struct {
	OwnerID        string
	OrganizationID string // empty when the item is not org-scoped
	Visibility     Visibility
}

// CanRead applies the read decision table, first match wins:
// public items are readable by anyone, otherwise the actor must be the
// owner or hold any membership in the item's organization when visibility
// is ORGANIZATION.
func CanRead(actor *Actor, res Resource, m Memberships) bool {
	if res.Visibility == VisibilityPublic {
		return true
	}
	if actor == nil {
		return false
	}
	if actor.ID == res.OwnerID {
		return true
	}
	if res.Visibility == VisibilityOrganization && res.OrganizationID != "" {
		if _, ok := m[res.OrganizationID]; ok {
			return true
		}
	}
	return false
}

// CanWrite allows a resolvable actor that either owns the item or holds an
// ADMIN or OWNER role in the item's organization.
func CanWrite(actor *Actor, res Resource, m Memberships) bool {
	if actor == nil {
		return false
	}
	if actor.ID == res.OwnerID {
		return true
	}
	if res.OrganizationID != "" {
		switch m[res.OrganizationID] {
		case RoleAdmin, RoleOwner:
			return true
		}
	}
	return false
}

// CanDelete mirrors CanWrite.
func CanDelete(actor *Actor, res Resource, m Memberships) bool {
	return CanWrite(actor, res, m)
}

// CanReassign checks an update that moves the item into newOrgID. The actor
// needs write permission on the current item and any membership in the
// destination organization, so content cannot be moved somewhere the actor
// cannot see.
func CanReassign(actor *Actor, res Resource, m Memberships, newOrgID string) bool {
	if !CanWrite(actor, res, m) {
		return false
	}
	if newOrgID == "" || newOrgID == res.OrganizationID {
		return true
	}
	_, ok := m[newOrgID]
	return ok
}

// CanManageTags gates tag attach/detach. Same rule as writes.
func CanManageTags(actor *Actor, res Resource, m Memberships) bool {
	return CanWrite(actor, res, m)
}

// TagScopeAllowed rejects cross-organization tag attachment: the tag must
// be global (no organization) or belong to the item's organization.
func TagScopeAllowed(itemOrgID, tagOrgID string) bool {
	return tagOrgID == "" || tagOrgID == itemOrgID
}

// ListScope is the implicit visibility gate for multi-item reads. It is
// always applied; explicit owner/organization filters narrow it, they never
// replace it.
type ListScope struct {
	PublicOnly bool     // anonymous actor: PUBLIC items only
	ActorID    string   // items owned by the actor
	OrgIDs     []string // ORGANIZATION items in these organizations
}

func ScopeFor(actor *Actor, m Memberships) ListScope {
	if actor == nil {
		return ListScope{PublicOnly: true}
	}
	scope := ListScope{ActorID: actor.ID}
	for orgID := range m {
		scope.OrgIDs = append(scope.OrgIDs, orgID)
	}
	return scope
}
