package policy

import "testing"

var (
	owner    = &Actor{ID: "usr_owner"}
	stranger = &Actor{ID: "usr_stranger"}
	member   = &Actor{ID: "usr_member"}
	admin    = &Actor{ID: "usr_admin"}
)

func TestCanRead(t *testing.T) {
	tests := []struct {
		name  string
		actor *Actor
		res   Resource
		m     Memberships
		want  bool
	}{
		{
			name:  "Public Anonymous",
			actor: nil,
			res:   Resource{OwnerID: "usr_owner", Visibility: VisibilityPublic},
			want:  true,
		},
		{
			name:  "Public Stranger",
			actor: stranger,
			res:   Resource{OwnerID: "usr_owner", Visibility: VisibilityPublic},
			want:  true,
		},
		{
			name:  "Private Anonymous",
			actor: nil,
			res:   Resource{OwnerID: "usr_owner", Visibility: VisibilityPrivate},
			want:  false,
		},
		{
			name:  "Private Owner",
			actor: owner,
			res:   Resource{OwnerID: "usr_owner", Visibility: VisibilityPrivate},
			want:  true,
		},
		{
			name:  "Owner Reads Regardless Of Visibility",
			actor: owner,
			res:   Resource{OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: VisibilityOrganization},
			want:  true,
		},
		{
			name:  "Private Denies Same Org Member",
			actor: member,
			res:   Resource{OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: VisibilityPrivate},
			m:     Memberships{"org_1": RoleMember},
			want:  false,
		},
		{
			name:  "Org Visibility Member",
			actor: member,
			res:   Resource{OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: VisibilityOrganization},
			m:     Memberships{"org_1": RoleMember},
			want:  true,
		},
		{
			name:  "Org Visibility Non Member",
			actor: stranger,
			res:   Resource{OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: VisibilityOrganization},
			m:     Memberships{"org_2": RoleOwner},
			want:  false,
		},
		{
			name:  "Org Visibility Without Org Set",
			actor: member,
			res:   Resource{OwnerID: "usr_owner", Visibility: VisibilityOrganization},
			m:     Memberships{"org_1": RoleMember},
			want:  false,
		},
		{
			name:  "Org Visibility Anonymous",
			actor: nil,
			res:   Resource{OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: VisibilityOrganization},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRead(tt.actor, tt.res, tt.m); got != tt.want {
				t.Errorf("CanRead() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanWrite(t *testing.T) {
	res := Resource{OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: VisibilityOrganization}

	tests := []struct {
		name  string
		actor *Actor
		m     Memberships
		want  bool
	}{
		{"Anonymous", nil, nil, false},
		{"Owner", owner, nil, true},
		{"Org Admin", admin, Memberships{"org_1": RoleAdmin}, true},
		{"Org Owner Role", admin, Memberships{"org_1": RoleOwner}, true},
		{"Org Member", member, Memberships{"org_1": RoleMember}, false},
		{"Unrelated Admin", admin, Memberships{"org_2": RoleAdmin}, false},
		{"Stranger", stranger, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanWrite(tt.actor, res, tt.m); got != tt.want {
				t.Errorf("CanWrite() = %v, want %v", got, tt.want)
			}
			if got := CanDelete(tt.actor, res, tt.m); got != tt.want {
				t.Errorf("CanDelete() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("No Org Set Admin Cannot Write", func(t *testing.T) {
		private := Resource{OwnerID: "usr_owner", Visibility: VisibilityPrivate}
		if CanWrite(admin, private, Memberships{"org_1": RoleAdmin}) {
			t.Error("admin of unrelated org should not write an item with no organization")
		}
	})
}

func TestCanReassign(t *testing.T) {
	res := Resource{OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: VisibilityOrganization}

	tests := []struct {
		name     string
		actor    *Actor
		m        Memberships
		newOrgID string
		want     bool
	}{
		{"Owner Into Member Org", owner, Memberships{"org_2": RoleMember}, "org_2", true},
		{"Owner Into Foreign Org", owner, nil, "org_2", false},
		{"Admin Into Foreign Org", admin, Memberships{"org_1": RoleAdmin}, "org_2", false},
		{"Admin Same Org", admin, Memberships{"org_1": RoleAdmin}, "org_1", true},
		{"Clearing Org", owner, nil, "", true},
		{"No Write Permission", member, Memberships{"org_1": RoleMember, "org_2": RoleOwner}, "org_2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanReassign(tt.actor, res, tt.m, tt.newOrgID); got != tt.want {
				t.Errorf("CanReassign() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTagScopeAllowed(t *testing.T) {
	tests := []struct {
		name      string
		itemOrgID string
		tagOrgID  string
		want      bool
	}{
		{"Global Tag", "org_1", "", true},
		{"Global Tag On Unscoped Item", "", "", true},
		{"Same Org", "org_1", "org_1", true},
		{"Cross Org", "org_b", "org_a", false},
		{"Scoped Tag On Unscoped Item", "", "org_a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TagScopeAllowed(tt.itemOrgID, tt.tagOrgID); got != tt.want {
				t.Errorf("TagScopeAllowed(%q, %q) = %v, want %v", tt.itemOrgID, tt.tagOrgID, got, tt.want)
			}
		})
	}
}

func TestScopeFor(t *testing.T) {
	t.Run("Anonymous", func(t *testing.T) {
		scope := ScopeFor(nil, nil)
		if !scope.PublicOnly {
			t.Error("anonymous scope must be public-only")
		}
	})

	t.Run("Authenticated", func(t *testing.T) {
		scope := ScopeFor(member, Memberships{"org_1": RoleMember, "org_2": RoleAdmin})
		if scope.PublicOnly {
			t.Error("authenticated scope must not be public-only")
		}
		if scope.ActorID != member.ID {
			t.Errorf("expected actor id %s, got %s", member.ID, scope.ActorID)
		}
		if len(scope.OrgIDs) != 2 {
			t.Errorf("expected 2 org ids, got %d", len(scope.OrgIDs))
		}
	})

	t.Run("Authenticated No Memberships", func(t *testing.T) {
		scope := ScopeFor(stranger, nil)
		if scope.PublicOnly || scope.ActorID != stranger.ID || len(scope.OrgIDs) != 0 {
			t.Errorf("unexpected scope %+v", scope)
		}
	})
}
