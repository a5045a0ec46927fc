package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func row(collection, id, handle string) Row {
	now := time.Now().UTC().Truncate(time.Second)
	return Row{
		Collection: collection,
		ID:         id,
		Handle:     handle,
		Title:      "Title " + id,
		Status:     "draft",
		Data:       json.RawMessage(fmt.Sprintf(`{"id":%q}`, id)),
		Body:       "body of " + id,
		Checksum:   "c-" + id,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestInsertAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	r := row("posts", "p1", "hello")
	pub := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.PublishedAt = &pub
	if err := db.Insert(ctx, r); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := db.Get(ctx, "posts", "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Handle != "hello" || got.Checksum != "c-p1" || string(got.Data) != `{"id":"p1"}` {
		t.Errorf("got %+v", got)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(pub) {
		t.Errorf("publishedAt = %v", got.PublishedAt)
	}

	byHandle, err := db.GetByHandle(ctx, "posts", "hello")
	if err != nil || byHandle.ID != "p1" {
		t.Fatalf("GetByHandle = %+v, %v", byHandle, err)
	}

	if _, err := db.Get(ctx, "posts", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing get err = %v", err)
	}
	if _, err := db.GetByHandle(ctx, "posts", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("empty handle err = %v", err)
	}
}

func TestInsertDuplicateHandle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.Insert(ctx, row("posts", "p1", "same")); err != nil {
		t.Fatal(err)
	}
	if err := db.Insert(ctx, row("posts", "p2", "same")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate handle err = %v", err)
	}
	if err := db.Insert(ctx, row("posts", "p1", "other")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate id err = %v", err)
	}
	// handles are unique per collection only
	if err := db.Insert(ctx, row("tags", "t1", "same")); err != nil {
		t.Errorf("same handle in other collection: %v", err)
	}
	// empty handles never collide
	if err := db.Insert(ctx, row("media", "m1", "")); err != nil {
		t.Fatal(err)
	}
	if err := db.Insert(ctx, row("media", "m2", "")); err != nil {
		t.Errorf("second empty handle: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.Insert(ctx, row("posts", "p1", "one")); err != nil {
		t.Fatal(err)
	}

	next := row("posts", "p1", "one-renamed")
	next.Checksum = "c2"
	if err := db.Update(ctx, next, "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale checksum err = %v", err)
	}
	if err := db.Update(ctx, next, "c-p1"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := db.Get(ctx, "posts", "p1")
	if got.Handle != "one-renamed" || got.Checksum != "c2" {
		t.Errorf("after update = %+v", got)
	}

	if err := db.Update(ctx, row("posts", "nope", "x"), ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.Insert(ctx, row("tags", "t1", "go"))

	if err := db.Delete(ctx, "tags", "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := db.Delete(ctx, "tags", "t1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestGetManyAndHandles(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := db.Insert(ctx, row("media", id, id+".png")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.GetMany(ctx, "media", []string{"a", "c", "zz"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(got) != 2 || got["a"] == nil || got["c"] == nil {
		t.Errorf("GetMany = %v", got)
	}

	handles, err := db.Handles(ctx, "media")
	if err != nil {
		t.Fatal(err)
	}
	if handles["b.png"] != "b" || len(handles) != 3 {
		t.Errorf("Handles = %v", handles)
	}
}

func TestListSortAndPage(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := row("posts", fmt.Sprintf("p%d", i), fmt.Sprintf("post-%d", i))
		pub := base.Add(time.Duration(i) * time.Hour)
		r.PublishedAt = &pub
		if i%2 == 0 {
			r.Status = "published"
		}
		if err := db.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	rows, total, err := db.List(ctx, Query{Collection: "posts", Status: "published", Sort: "-publishedAt", Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(rows) != 2 || rows[0].ID != "p4" || rows[1].ID != "p2" {
		t.Errorf("page 1 = %+v", rows)
	}

	rows, _, _ = db.List(ctx, Query{Collection: "posts", Status: "published", Sort: "-publishedAt", Limit: 2, Offset: 2})
	if len(rows) != 1 || rows[0].ID != "p0" {
		t.Errorf("page 2 = %+v", rows)
	}

	rows, total, _ = db.List(ctx, Query{Collection: "posts", Sort: "slug"})
	if total != 5 || len(rows) != 5 || rows[0].Handle != "post-0" {
		t.Errorf("all by slug = %d %+v", total, rows)
	}

	rows, total, _ = db.List(ctx, Query{Collection: "categories"})
	if total != 0 || rows == nil {
		t.Errorf("empty collection = %v, %d", rows, total)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	r := row("posts", "p1", "interfaces")
	r.Title = "Small interfaces"
	r.Body = "Accept interfaces and return structs."
	_ = db.Insert(ctx, r)
	_ = db.Insert(ctx, row("posts", "p2", "other"))

	results, err := db.Search(ctx, "posts", "structs", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "p1" {
		t.Errorf("results = %+v", results)
	}

	if err := db.Delete(ctx, "posts", "p1"); err != nil {
		t.Fatal(err)
	}
	results, _ = db.Search(ctx, "posts", "structs", 10)
	if len(results) != 0 {
		t.Errorf("deleted document still searchable: %+v", results)
	}
}
