package content

import (
	"errors"
	"testing"
	"time"

	"secondbrain/internal/engine/policy"
	apperrors "secondbrain/internal/pkg/errors"
	"secondbrain/internal/platform/models"
)

type fakeMemberships map[string]policy.Memberships

func (f fakeMemberships) RolesForUser(userID string) (policy.Memberships, error) {
	return f[userID], nil
}

type fakeTags map[string]*models.Tag

func (f fakeTags) GetByID(id string) (*models.Tag, error) {
	return f[id], nil
}

func newTestService(t *testing.T, memberships fakeMemberships, tags fakeTags) (*Service, *Repository) {
	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	return NewService(repo, memberships, tags), repo
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService(t, fakeMemberships{}, fakeTags{})
	actor := &policy.Actor{ID: "usr_1"}

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"missing title", CreateRequest{Type: TypeNote}, apperrors.ErrValidation},
		{"missing type", CreateRequest{Title: "x"}, apperrors.ErrValidation},
		{"bad type", CreateRequest{Title: "x", Type: "PODCAST"}, apperrors.ErrValidation},
		{"bad visibility", CreateRequest{Title: "x", Type: TypeNote, Visibility: "SECRET"}, apperrors.ErrValidation},
		{"org visibility without org", CreateRequest{Title: "x", Type: TypeNote, Visibility: policy.VisibilityOrganization}, apperrors.ErrValidation},
		{"not a member of org", CreateRequest{Title: "x", Type: TypeNote, OrganizationID: "org_1"}, apperrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(actor, &tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := svc.Create(nil, &CreateRequest{Title: "x", Type: TypeNote}); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Errorf("Expected unauthenticated error for nil actor, got %v", err)
	}
}

func TestService_CreateDefaultsToPrivate(t *testing.T) {
	svc, _ := newTestService(t, fakeMemberships{}, fakeTags{})

	item, err := svc.Create(&policy.Actor{ID: "usr_1"}, &CreateRequest{Title: "Note", Type: TypeNote})
	if err != nil {
		t.Fatalf("Failed to create: %v", err)
	}
	if item.Visibility != policy.VisibilityPrivate {
		t.Errorf("Expected PRIVATE default, got %s", item.Visibility)
	}
	if item.OwnerID != "usr_1" {
		t.Errorf("Expected owner usr_1, got %s", item.OwnerID)
	}
}

func TestService_CreatePublishedStampsTimestamp(t *testing.T) {
	svc, _ := newTestService(t, fakeMemberships{}, fakeTags{})

	item, err := svc.Create(&policy.Actor{ID: "usr_1"}, &CreateRequest{Title: "Note", Type: TypeNote, Published: true})
	if err != nil {
		t.Fatalf("Failed to create: %v", err)
	}
	if item.PublishedAt == nil {
		t.Error("Expected published_at to be set")
	}
}

func TestService_CreateWithTags(t *testing.T) {
	tags := fakeTags{
		"tag_global": {ID: "tag_global", Name: "global"},
		"tag_org2":   {ID: "tag_org2", Name: "scoped", OrganizationID: "org_2"},
	}
	svc, _ := newTestService(t, fakeMemberships{"usr_1": {"org_1": policy.RoleMember}}, tags)
	actor := &policy.Actor{ID: "usr_1"}

	item, err := svc.Create(actor, &CreateRequest{
		Title:          "Tagged",
		Type:           TypeNote,
		OrganizationID: "org_1",
		TagIDs:         []string{"tag_global"},
	})
	if err != nil {
		t.Fatalf("Failed to create: %v", err)
	}
	if len(item.Tags) != 1 {
		t.Errorf("Expected 1 tag, got %d", len(item.Tags))
	}

	_, err = svc.Create(actor, &CreateRequest{
		Title:          "Cross-org tag",
		Type:           TypeNote,
		OrganizationID: "org_1",
		TagIDs:         []string{"tag_org2"},
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Expected validation error for cross-org tag, got %v", err)
	}

	_, err = svc.Create(actor, &CreateRequest{
		Title:  "Missing tag",
		Type:   TypeNote,
		TagIDs: []string{"tag_nope"},
	})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected not found error for unknown tag, got %v", err)
	}
}

func TestService_GetEnforcesPolicy(t *testing.T) {
	svc, repo := newTestService(t, fakeMemberships{"usr_member": {"org_1": policy.RoleMember}}, fakeTags{})

	seedItem(t, repo, &Item{ID: "cnt_priv", Title: "Private", OwnerID: "usr_owner", Visibility: policy.VisibilityPrivate})
	seedItem(t, repo, &Item{ID: "cnt_org", Title: "Team", OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: policy.VisibilityOrganization})
	seedItem(t, repo, &Item{ID: "cnt_pub", Title: "Public", OwnerID: "usr_owner", Visibility: policy.VisibilityPublic})

	if _, err := svc.Get(nil, "cnt_pub"); err != nil {
		t.Errorf("Anonymous read of public item should succeed, got %v", err)
	}
	if _, err := svc.Get(nil, "cnt_priv"); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Errorf("Expected unauthenticated error, got %v", err)
	}
	if _, err := svc.Get(&policy.Actor{ID: "usr_member"}, "cnt_priv"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("Expected forbidden for private item, got %v", err)
	}
	if _, err := svc.Get(&policy.Actor{ID: "usr_member"}, "cnt_org"); err != nil {
		t.Errorf("Org member read should succeed, got %v", err)
	}
	if _, err := svc.Get(&policy.Actor{ID: "usr_owner"}, "cnt_priv"); err != nil {
		t.Errorf("Owner read should succeed, got %v", err)
	}
	if _, err := svc.Get(&policy.Actor{ID: "usr_owner"}, "cnt_missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestService_UpdatePermissions(t *testing.T) {
	m := fakeMemberships{
		"usr_admin":  {"org_1": policy.RoleAdmin},
		"usr_member": {"org_1": policy.RoleMember},
	}
	svc, repo := newTestService(t, m, fakeTags{})

	seedItem(t, repo, &Item{ID: "cnt_1", Title: "Doc", OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: policy.VisibilityOrganization})

	title := "Renamed"
	if _, err := svc.Update(&policy.Actor{ID: "usr_member"}, "cnt_1", &UpdateRequest{Title: &title}); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("Plain member must not update, got %v", err)
	}

	item, err := svc.Update(&policy.Actor{ID: "usr_admin"}, "cnt_1", &UpdateRequest{Title: &title})
	if err != nil {
		t.Fatalf("Admin update failed: %v", err)
	}
	if item.Title != "Renamed" {
		t.Errorf("Expected renamed title, got %s", item.Title)
	}
}

func TestService_AuthorizeWrite(t *testing.T) {
	m := fakeMemberships{"usr_member": {"org_1": policy.RoleMember}}
	svc, repo := newTestService(t, m, fakeTags{})

	seedItem(t, repo, &Item{
		ID: "cnt_1", Title: "Doc", OwnerID: "usr_owner",
		OrganizationID: "org_1", Visibility: policy.VisibilityOrganization,
		CreatedAt: 1000, UpdatedAt: 1000,
	})

	if _, err := svc.AuthorizeWrite(nil, "cnt_1"); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Errorf("Expected unauthenticated error, got %v", err)
	}
	if _, err := svc.AuthorizeWrite(&policy.Actor{ID: "usr_member"}, "cnt_1"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("Plain member must not pass the write gate, got %v", err)
	}
	if _, err := svc.AuthorizeWrite(&policy.Actor{ID: "usr_owner"}, "cnt_missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}

	item, err := svc.AuthorizeWrite(&policy.Actor{ID: "usr_owner"}, "cnt_1")
	if err != nil {
		t.Fatalf("Owner check failed: %v", err)
	}
	if item.ID != "cnt_1" {
		t.Errorf("Expected cnt_1, got %s", item.ID)
	}

	// The check must not write the row; a bumped updated_at would reorder
	// listings on every attachment upload.
	reloaded, err := repo.GetByID("cnt_1")
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.UpdatedAt != 1000 {
		t.Errorf("Expected updated_at 1000 to be untouched, got %d", reloaded.UpdatedAt)
	}
}

func TestService_UpdateReassignRequiresMembership(t *testing.T) {
	m := fakeMemberships{"usr_owner": {"org_1": policy.RoleMember}}
	svc, repo := newTestService(t, m, fakeTags{})

	seedItem(t, repo, &Item{ID: "cnt_1", Title: "Doc", OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: policy.VisibilityOrganization})

	other := "org_2"
	_, err := svc.Update(&policy.Actor{ID: "usr_owner"}, "cnt_1", &UpdateRequest{OrganizationID: &other})
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("Expected forbidden reassignment, got %v", err)
	}

	// Clearing the org on an ORGANIZATION-visibility item is a validation
	// failure, not a permission one.
	empty := ""
	_, err = svc.Update(&policy.Actor{ID: "usr_owner"}, "cnt_1", &UpdateRequest{OrganizationID: &empty})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestService_UpdatePublishTransition(t *testing.T) {
	svc, repo := newTestService(t, fakeMemberships{}, fakeTags{})
	seedItem(t, repo, &Item{ID: "cnt_1", Title: "Draft", OwnerID: "usr_1"})

	published := true
	item, err := svc.Update(&policy.Actor{ID: "usr_1"}, "cnt_1", &UpdateRequest{Published: &published})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if item.PublishedAt == nil {
		t.Fatal("Expected published_at to be stamped")
	}
	first := *item.PublishedAt

	// Republishing keeps the original timestamp.
	time.Sleep(time.Millisecond)
	item, err = svc.Update(&policy.Actor{ID: "usr_1"}, "cnt_1", &UpdateRequest{Published: &published})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if *item.PublishedAt != first {
		t.Errorf("Expected published_at %d to be preserved, got %d", first, *item.PublishedAt)
	}
}

func TestService_DeleteSoftDeletes(t *testing.T) {
	m := fakeMemberships{"usr_member": {"org_1": policy.RoleMember}}
	svc, repo := newTestService(t, m, fakeTags{})
	seedItem(t, repo, &Item{ID: "cnt_1", Title: "Doc", OwnerID: "usr_owner", OrganizationID: "org_1", Visibility: policy.VisibilityOrganization})

	if err := svc.Delete(&policy.Actor{ID: "usr_member"}, "cnt_1"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("Plain member must not delete, got %v", err)
	}

	if err := svc.Delete(&policy.Actor{ID: "usr_owner"}, "cnt_1"); err != nil {
		t.Fatalf("Owner delete failed: %v", err)
	}

	item, err := repo.GetByID("cnt_1")
	if err != nil {
		t.Fatal(err)
	}
	if item != nil {
		t.Error("Expected item to be hidden after delete")
	}

	if err := svc.Delete(&policy.Actor{ID: "usr_owner"}, "cnt_1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestService_ListAppliesScope(t *testing.T) {
	m := fakeMemberships{"usr_1": {"org_1": policy.RoleMember}}
	svc, repo := newTestService(t, m, fakeTags{})

	seedItem(t, repo, &Item{ID: "cnt_pub", Title: "Public", OwnerID: "usr_other", Visibility: policy.VisibilityPublic})
	seedItem(t, repo, &Item{ID: "cnt_foreign", Title: "Foreign", OwnerID: "usr_other", OrganizationID: "org_2", Visibility: policy.VisibilityOrganization})

	page, err := svc.List(&policy.Actor{ID: "usr_1"}, Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Meta.Total != 1 {
		t.Errorf("Expected total 1, got %d", page.Meta.Total)
	}
	if page.Meta.Page != 1 || page.Meta.PerPage != 20 {
		t.Errorf("Expected normalized page meta, got %+v", page.Meta)
	}

	page, err = svc.List(nil, Filter{})
	if err != nil {
		t.Fatalf("Anonymous list failed: %v", err)
	}
	if page.Meta.Total != 1 || page.Data[0].ID != "cnt_pub" {
		t.Errorf("Anonymous listing should contain only the public item")
	}
}
