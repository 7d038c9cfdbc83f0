package content

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"secondbrain/internal/engine/policy"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	query := `
	CREATE TABLE content_items (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		visibility TEXT NOT NULL DEFAULT 'PRIVATE',
		owner_id TEXT NOT NULL,
		organization_id TEXT,
		pinned INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		published INTEGER NOT NULL DEFAULT 0,
		published_at INTEGER,
		metadata TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		deleted_at INTEGER
	);
	CREATE TABLE tags (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		organization_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE content_item_tags (
		content_item_id TEXT NOT NULL,
		tag_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (content_item_id, tag_id)
	);
	CREATE TABLE attachments (
		id TEXT PRIMARY KEY,
		content_item_id TEXT NOT NULL,
		url TEXT NOT NULL,
		filename TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		uploaded_by TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}

func seedItem(t *testing.T, repo *Repository, item *Item) {
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().Unix()
	}
	if item.UpdatedAt == 0 {
		item.UpdatedAt = item.CreatedAt
	}
	if item.Type == "" {
		item.Type = TypeNote
	}
	if item.Visibility == "" {
		item.Visibility = policy.VisibilityPrivate
	}
	if err := repo.Create(item); err != nil {
		t.Fatalf("Failed to seed item %s: %v", item.ID, err)
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	now := time.Now().Unix()
	item := &Item{
		ID:         "cnt_1",
		Title:      "Reading list",
		Type:       TypeNote,
		Visibility: policy.VisibilityPrivate,
		OwnerID:    "usr_1",
		Metadata:   map[string]interface{}{"source": "manual"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := repo.Create(item); err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	fetched, err := repo.GetByID("cnt_1")
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if fetched == nil {
		t.Fatal("Expected item, got nil")
	}
	if fetched.Title != "Reading list" {
		t.Errorf("Expected title 'Reading list', got %s", fetched.Title)
	}
	if fetched.Metadata["source"] != "manual" {
		t.Errorf("Expected metadata to round-trip, got %v", fetched.Metadata)
	}
}

func TestRepository_GetMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	item, err := repo.GetByID("cnt_missing")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item != nil {
		t.Errorf("Expected nil for missing item, got %+v", item)
	}
}

func TestRepository_SoftDeleteHidesItem(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	seedItem(t, repo, &Item{ID: "cnt_1", Title: "Gone soon", OwnerID: "usr_1"})

	if err := repo.SoftDelete("cnt_1"); err != nil {
		t.Fatalf("Failed to soft delete: %v", err)
	}

	item, err := repo.GetByID("cnt_1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item != nil {
		t.Error("Expected soft-deleted item to be hidden")
	}

	items, err := repo.List(Filter{Scope: policy.ListScope{ActorID: "usr_1"}})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty listing, got %d items", len(items))
	}
}

func TestRepository_PurgeDeletedBefore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	seedItem(t, repo, &Item{ID: "cnt_old", Title: "Old", OwnerID: "usr_1"})
	seedItem(t, repo, &Item{ID: "cnt_new", Title: "New", OwnerID: "usr_1"})
	seedItem(t, repo, &Item{ID: "cnt_live", Title: "Live", OwnerID: "usr_1"})

	old := time.Now().Add(-48 * time.Hour).Unix()
	recent := time.Now().Unix()
	if _, err := db.Exec("UPDATE content_items SET deleted_at = ? WHERE id = ?", old, "cnt_old"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE content_items SET deleted_at = ? WHERE id = ?", recent, "cnt_new"); err != nil {
		t.Fatal(err)
	}

	cutoff := time.Now().Add(-24 * time.Hour).Unix()
	n, err := repo.PurgeDeletedBefore(cutoff)
	if err != nil {
		t.Fatalf("Failed to purge: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 purged item, got %d", n)
	}

	var remaining int
	if err := db.QueryRow("SELECT COUNT(*) FROM content_items").Scan(&remaining); err != nil {
		t.Fatal(err)
	}
	if remaining != 2 {
		t.Errorf("Expected 2 remaining rows, got %d", remaining)
	}
}

func TestRepository_ListVisibilityGate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	seedItem(t, repo, &Item{ID: "cnt_pub", Title: "Public", OwnerID: "usr_other", Visibility: policy.VisibilityPublic})
	seedItem(t, repo, &Item{ID: "cnt_mine", Title: "Mine", OwnerID: "usr_1", Visibility: policy.VisibilityPrivate})
	seedItem(t, repo, &Item{ID: "cnt_org", Title: "Team doc", OwnerID: "usr_other", OrganizationID: "org_1", Visibility: policy.VisibilityOrganization})
	seedItem(t, repo, &Item{ID: "cnt_foreign", Title: "Foreign team", OwnerID: "usr_other", OrganizationID: "org_2", Visibility: policy.VisibilityOrganization})
	seedItem(t, repo, &Item{ID: "cnt_private", Title: "Someone else's", OwnerID: "usr_other", Visibility: policy.VisibilityPrivate})

	// Anonymous scope sees PUBLIC only.
	items, err := repo.List(Filter{Scope: policy.ListScope{PublicOnly: true}})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 1 || items[0].ID != "cnt_pub" {
		t.Errorf("Expected only the public item, got %d items", len(items))
	}

	// Member of org_1 sees public, own, and org_1 items.
	scope := policy.ListScope{ActorID: "usr_1", OrgIDs: []string{"org_1"}}
	items, err = repo.List(Filter{Scope: scope})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	for _, item := range items {
		if item.ID == "cnt_foreign" || item.ID == "cnt_private" {
			t.Errorf("Item %s must not be visible", item.ID)
		}
	}
}

func TestRepository_ListExplicitFiltersCannotWidenScope(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	seedItem(t, repo, &Item{ID: "cnt_foreign", Title: "Foreign team", OwnerID: "usr_other", OrganizationID: "org_2", Visibility: policy.VisibilityOrganization})

	// Asking for org_2 explicitly does not reveal its items to a non-member.
	scope := policy.ListScope{ActorID: "usr_1", OrgIDs: []string{"org_1"}}
	items, err := repo.List(Filter{Scope: scope, OrganizationID: "org_2"})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}

	// Same for an explicit owner filter on someone else's private content.
	seedItem(t, repo, &Item{ID: "cnt_private", Title: "Private", OwnerID: "usr_other", Visibility: policy.VisibilityPrivate})
	items, err = repo.List(Filter{Scope: scope, OwnerID: "usr_other"})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
}

func TestRepository_ListExcludesArchived(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	seedItem(t, repo, &Item{ID: "cnt_live", Title: "Live", OwnerID: "usr_1"})
	seedItem(t, repo, &Item{ID: "cnt_arch", Title: "Archived", OwnerID: "usr_1", Archived: true})

	items, err := repo.List(Filter{Scope: policy.ListScope{ActorID: "usr_1"}})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 1 || items[0].ID != "cnt_live" {
		t.Errorf("Expected only the live item, got %d items", len(items))
	}
}

func TestRepository_ListOrdering(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	base := time.Now().Unix()
	seedItem(t, repo, &Item{ID: "cnt_old", Title: "Old", OwnerID: "usr_1", CreatedAt: base - 100, UpdatedAt: base - 100})
	seedItem(t, repo, &Item{ID: "cnt_new", Title: "New", OwnerID: "usr_1", CreatedAt: base, UpdatedAt: base})
	seedItem(t, repo, &Item{ID: "cnt_pin", Title: "Pinned", OwnerID: "usr_1", Pinned: true, CreatedAt: base - 200, UpdatedAt: base - 200})

	items, err := repo.List(Filter{Scope: policy.ListScope{ActorID: "usr_1"}})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	want := []string{"cnt_pin", "cnt_new", "cnt_old"}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, items[i].ID)
		}
	}
}

func TestRepository_ListSearch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	seedItem(t, repo, &Item{ID: "cnt_1", Title: "Distributed Systems", OwnerID: "usr_1"})
	seedItem(t, repo, &Item{ID: "cnt_2", Title: "Cooking", Content: "pasta with SYSTEMS of flavor", OwnerID: "usr_1"})
	seedItem(t, repo, &Item{ID: "cnt_3", Title: "Gardening", OwnerID: "usr_1"})

	items, err := repo.List(Filter{Query: "systems", Scope: policy.ListScope{ActorID: "usr_1"}})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 matches, got %d", len(items))
	}
}

func TestRepository_ListTagFilter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	seedItem(t, repo, &Item{ID: "cnt_tagged", Title: "Tagged", OwnerID: "usr_1"})
	seedItem(t, repo, &Item{ID: "cnt_plain", Title: "Plain", OwnerID: "usr_1"})

	now := time.Now().Unix()
	if _, err := db.Exec("INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?)", "tag_go", "golang", now); err != nil {
		t.Fatal(err)
	}
	if err := repo.attachTags("cnt_tagged", []string{"tag_go"}); err != nil {
		t.Fatalf("Failed to attach tag: %v", err)
	}

	for _, needle := range []string{"tag_go", "GOLANG"} {
		items, err := repo.List(Filter{Tag: needle, Scope: policy.ListScope{ActorID: "usr_1"}})
		if err != nil {
			t.Fatalf("Failed to list by %q: %v", needle, err)
		}
		if len(items) != 1 || items[0].ID != "cnt_tagged" {
			t.Errorf("Filter %q: expected the tagged item, got %d items", needle, len(items))
		}
	}

	item, err := repo.GetByID("cnt_tagged")
	if err != nil {
		t.Fatal(err)
	}
	if len(item.Tags) != 1 || item.Tags[0].Name != "golang" {
		t.Errorf("Expected expanded tag golang, got %+v", item.Tags)
	}
}

func TestRepository_Pagination(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	base := time.Now().Unix()
	for i := 0; i < 12; i++ {
		seedItem(t, repo, &Item{
			ID:        fmt.Sprintf("cnt_%02d", i),
			Title:     fmt.Sprintf("Item %d", i),
			OwnerID:   "usr_1",
			CreatedAt: base + int64(i),
			UpdatedAt: base + int64(i),
		})
	}

	scope := policy.ListScope{ActorID: "usr_1"}

	items, err := repo.List(Filter{Page: 1, PerPage: 5, Scope: scope})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("Expected 5 items on page 1, got %d", len(items))
	}

	items, err = repo.List(Filter{Page: 3, PerPage: 5, Scope: scope})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 items on page 3, got %d", len(items))
	}

	total, err := repo.Count(Filter{Scope: scope})
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if total != 12 {
		t.Errorf("Expected total 12, got %d", total)
	}
}

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		page, per   int
		wantPage    int
		wantPerPage int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative page", -3, 0, 1, 20},
		{"below minimum", 1, 2, 1, 5},
		{"above maximum", 2, 500, 2, 100},
		{"in range", 4, 50, 4, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Filter{Page: tt.page, PerPage: tt.per}
			f.normalize()
			if f.Page != tt.wantPage {
				t.Errorf("Page: expected %d, got %d", tt.wantPage, f.Page)
			}
			if f.PerPage != tt.wantPerPage {
				t.Errorf("PerPage: expected %d, got %d", tt.wantPerPage, f.PerPage)
			}
		})
	}
}
