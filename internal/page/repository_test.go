// internal/page/repository_test.go
//
// Unit-tests for the page repository using sqlmock.
//
// Context
// -------
// The interesting behaviours are the publish filter on public lookups, the
// zero-rows → ErrNotFound mapping on writes, and the two-statement
// homepage transaction that keeps the at-most-one-homepage invariant.
//
// Run: go test ./internal/page -v

package page

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

var pageColumns = []string{
	"id", "site_id", "user_id", "title", "slug", "description", "template",
	"content", "html_path", "html_content", "css_content",
	"is_published", "published_at", "is_homepage",
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

func samplePageRow(id uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(pageColumns).AddRow(
		id, uint64(7), uint64(3), "About Us", "about-us", "who we are", "",
		`{"html":"<div>about</div>","css":"div{}"}`, nil, "<div>about</div>", "div{}",
		true, now, false,
		now, now,
	)
}

func TestByID(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`FROM\s+page\s+WHERE\s+id = \?`).
		WithArgs(uint64(42)).
		WillReturnRows(samplePageRow(42))

	pg, err := ByID(context.Background(), db, 42)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if pg.ID != 42 || pg.Slug != "about-us" || !pg.IsPublished {
		t.Fatalf("unexpected record: %+v", pg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`FROM\s+page\s+WHERE\s+id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(pageColumns))

	if _, err := ByID(context.Background(), db, 99); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestBySiteAndSlug_PublishedOnly(t *testing.T) {
	db, mock := newMockDB(t)

	// The expectation pattern pins the publish filter: a draft row must be
	// invisible to the public lookup.
	mock.ExpectQuery(`site_id = \?\s+AND\s+slug = \?\s+AND\s+is_published = TRUE`).
		WithArgs(uint64(7), "about-us").
		WillReturnRows(samplePageRow(42))

	pg, err := BySiteAndSlug(context.Background(), db, 7, "about-us")
	if err != nil {
		t.Fatalf("BySiteAndSlug error: %v", err)
	}
	if pg.SiteID != 7 {
		t.Fatalf("unexpected site: %d", pg.SiteID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestHomepage_RequiresBothFlags(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`is_homepage = TRUE\s+AND\s+is_published = TRUE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(pageColumns))

	if _, err := Homepage(context.Background(), db, 7); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveContent_MissingRow(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE page\s+SET\s+content = \?`).
		WithArgs("doc", "<p>x</p>", "p{}", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := SaveContent(context.Background(), db, 5, "doc", "<p>x</p>", "p{}"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSetHomepage_ClearsPreviousInOneTx(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET\s+is_homepage = FALSE`).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET\s+is_homepage = TRUE`).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := SetHomepage(context.Background(), db, 42); err != nil {
		t.Fatalf("SetHomepage error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSetHomepage_MissingPage(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET\s+is_homepage = FALSE`).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SET\s+is_homepage = TRUE`).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := SetHomepage(context.Background(), db, 99); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
