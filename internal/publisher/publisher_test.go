// internal/publisher/publisher_test.go
//
// Unit-tests for the publish pipeline using sqlmock and a temp dir as the
// artifact root.
//
// Workflow / Structure
// --------------------
// Each test arranges:
//
//   1. sqlmock DB with the site lookup and the publish transaction.
//   2. A throwaway sites root (t.TempDir).
//   3. A memory-only cache client, pre-warmed where invalidation matters.
//
// and asserts on the artifact bytes, the DB expectations, and the cache
// state after Publish returns.
//
// Run: go test ./internal/publisher -v

package publisher

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/pagemade/pagemade/internal/page"
	"github.com/pagemade/pagemade/internal/pagecache"
)

var siteColumns = []string{
	"id", "user_id", "title", "subdomain", "description", "is_published",
	"created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func expectSiteLoad(mock sqlmock.Sqlmock, siteID uint64, published bool) {
	now := time.Now()
	mock.ExpectQuery(`FROM\s+site\s+WHERE\s+id = \?`).
		WithArgs(siteID).
		WillReturnRows(sqlmock.NewRows(siteColumns).
			AddRow(siteID, uint64(3), "Acme Co", "acme", "widgets", published, now, now))
}

func expectPublishTx(mock sqlmock.Sqlmock, pageID uint64, slug string, firstSitePublish bool, siteID uint64) {
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE page\s+SET\s+is_published = TRUE`).
		WithArgs(sqlmock.AnyArg(), slug, pageID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if firstSitePublish {
		mock.ExpectExec(`UPDATE site\s+SET\s+is_published = TRUE`).
			WithArgs(siteID).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()
}

func testPage(id uint64, rawContent string) *page.Record {
	return &page.Record{
		ID:      id,
		SiteID:  7,
		UserID:  3,
		Title:   "About Us",
		Slug:    "about-us",
		Content: sql.NullString{String: rawContent, Valid: rawContent != ""},
	}
}

func TestPublish_WritesArtifact(t *testing.T) {
	db, mock := newMockDB(t)
	root := t.TempDir()
	cache := pagecache.New(pagecache.Options{})

	expectSiteLoad(mock, 7, false)
	expectPublishTx(mock, 42, "about-us", true, 7)

	pub := New(db, cache, nil, root, "")
	pg := testPage(42, `{"html":"<div data-gjs-type=\"x\">about</div>","css":"div{color:red}"}`)

	res, err := pub.Publish(context.Background(), pg)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	want := filepath.Join(root, "7", "about-us.html")
	if res.ArtifactPath != want {
		t.Fatalf("artifact path = %q, want %q", res.ArtifactPath, want)
	}

	b, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	doc := string(b)
	if !strings.HasPrefix(doc, "<!DOCTYPE html>") {
		t.Fatalf("artifact missing DOCTYPE: %q", doc[:40])
	}
	if !strings.Contains(doc, "about") || !strings.Contains(doc, "div{color:red}") {
		t.Fatalf("artifact content wrong: %q", doc)
	}
	if strings.Contains(doc, "data-gjs-") {
		t.Fatalf("editor artifact survived cleaning: %q", doc)
	}
	if !strings.Contains(doc, "<title>About Us - Acme Co</title>") {
		t.Fatalf("title not composed: %q", doc)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestPublish_HomepageIsIndex(t *testing.T) {
	db, mock := newMockDB(t)
	root := t.TempDir()

	expectSiteLoad(mock, 7, true) // site already live, no site flip
	expectPublishTx(mock, 42, "about-us", false, 7)

	pub := New(db, pagecache.New(pagecache.Options{}), nil, root, "")
	pg := testPage(42, `{"html":"<h1>home</h1>"}`)
	pg.IsHomepage = true

	if _, err := pub.Publish(context.Background(), pg); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "7", "index.html")); err != nil {
		t.Fatalf("homepage artifact not at index.html: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestPublish_EmptyContentRejected(t *testing.T) {
	db, mock := newMockDB(t)
	root := t.TempDir()

	expectSiteLoad(mock, 7, true)
	// No transaction expectations: the pipeline must stop before any write.

	pub := New(db, pagecache.New(pagecache.Options{}), nil, root, "")
	pg := testPage(42, `{"html":"   ","css":""}`)

	if _, err := pub.Publish(context.Background(), pg); !errors.Is(err, ErrNothingToPublish) {
		t.Fatalf("err = %v, want ErrNothingToPublish", err)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Fatalf("artifact written despite empty content")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestPublish_RepublishIsByteIdentical(t *testing.T) {
	db, mock := newMockDB(t)
	root := t.TempDir()
	pub := New(db, pagecache.New(pagecache.Options{}), nil, root, "")
	pg := testPage(42, `{"html":"<p>stable</p>","css":"p{}"}`)

	expectSiteLoad(mock, 7, false)
	expectPublishTx(mock, 42, "about-us", true, 7)
	if _, err := pub.Publish(context.Background(), pg); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	first, _ := os.ReadFile(filepath.Join(root, "7", "about-us.html"))

	expectSiteLoad(mock, 7, true)
	expectPublishTx(mock, 42, "about-us", false, 7)
	if _, err := pub.Publish(context.Background(), pg); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	second, _ := os.ReadFile(filepath.Join(root, "7", "about-us.html"))

	if string(first) != string(second) {
		t.Fatalf("republishing unchanged content changed the artifact")
	}
}

func TestPublish_InvalidatesCache(t *testing.T) {
	db, mock := newMockDB(t)
	root := t.TempDir()
	cache := pagecache.New(pagecache.Options{})
	ctx := context.Background()

	cache.PutPage(ctx, 42, "<p>stale</p>", "", 0)
	cache.PutSitePages(ctx, 7, []pagecache.PageSummary{{ID: 42}})

	expectSiteLoad(mock, 7, true)
	expectPublishTx(mock, 42, "about-us", false, 7)

	pub := New(db, cache, nil, root, "")
	if _, err := pub.Publish(ctx, testPage(42, `{"html":"<p>fresh</p>"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if _, ok := cache.GetPage(ctx, 42); ok {
		t.Fatalf("stale rendering survived publish")
	}
	if _, ok := cache.GetSitePages(ctx, 7); ok {
		t.Fatalf("stale listing survived publish")
	}
}

func TestPublish_MirrorsToDeployRoot(t *testing.T) {
	db, mock := newMockDB(t)
	root, deploy := t.TempDir(), t.TempDir()

	expectSiteLoad(mock, 7, true)
	expectPublishTx(mock, 42, "about-us", false, 7)

	pub := New(db, pagecache.New(pagecache.Options{}), nil, root, deploy)
	if _, err := pub.Publish(context.Background(), testPage(42, `{"html":"<p>x</p>"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	mirrored, err := os.ReadFile(filepath.Join(deploy, "acme", "about-us.html"))
	if err != nil {
		t.Fatalf("mirror missing: %v", err)
	}
	artifact, _ := os.ReadFile(filepath.Join(root, "7", "about-us.html"))
	if string(mirrored) != string(artifact) {
		t.Fatalf("mirror diverges from artifact")
	}
}

func TestLockPage_SerializesAndDrainsEntries(t *testing.T) {
	pub := New(nil, nil, nil, t.TempDir(), "")

	unlock := pub.lockPage(42)

	done := make(chan struct{})
	go func() {
		u := pub.lockPage(42)
		u()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("concurrent publish of the same page was not serialized")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-done

	// Once nobody is publishing, the map must be empty again; it only
	// tracks pages with a publish in flight.
	pub.locksMu.Lock()
	n := len(pub.locks)
	pub.locksMu.Unlock()
	if n != 0 {
		t.Fatalf("lock map still holds %d entries after release", n)
	}
}

func TestUnpublish(t *testing.T) {
	db, mock := newMockDB(t)
	cache := pagecache.New(pagecache.Options{})
	ctx := context.Background()

	cache.PutPage(ctx, 42, "<p>live</p>", "", 0)

	mock.ExpectExec(`UPDATE page\s+SET\s+is_published = FALSE`).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	pub := New(db, cache, nil, t.TempDir(), "")
	if err := pub.Unpublish(ctx, testPage(42, "")); err != nil {
		t.Fatalf("Unpublish: %v", err)
	}
	if _, ok := cache.GetPage(ctx, 42); ok {
		t.Fatalf("rendering survived unpublish")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
