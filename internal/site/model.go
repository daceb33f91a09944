package site

import (
	"regexp"
	"time"
)

// Record mirrors one row in the persistent `site` table.  A site becomes
// published (`IsPublished`) only once at least one of its pages has been
// successfully published; unresolvable or unpublished sites are served the
// branded not-found page, never tenant content.
type Record struct {
	ID          uint64    `db:"id"`
	UserID      uint64    `db:"user_id"`
	Title       string    `db:"title"`
	Subdomain   string    `db:"subdomain"`
	Description string    `db:"description"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// subdomainRE encodes the DNS-label rules for tenant subdomains: lowercase
// alphanumeric plus interior hyphens, 3–63 characters.
var subdomainRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])$`)

// ValidSubdomain reports whether s is an acceptable tenant subdomain.
func ValidSubdomain(s string) bool {
	return subdomainRE.MatchString(s)
}
