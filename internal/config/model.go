// internal/config/model.go
//
// Typed configuration model for the PageMade publish-and-serve core.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `PAGEMADE_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs—only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.  That covers the one misconfiguration this
// system must never run with silently: an empty JWT signing key.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the control-plane DSN.  The secret portion may be stored in
// Vault and injected at runtime via the `vault:` prefix, keeping credentials
// out of flat files and git history.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Cache section
//

// Cache configures the rendered-content cache.  The in-process tier is
// always on; the Redis tier is used only when `redis_addr` is set and the
// server answers PING at boot.  TTLs are seconds in YAML.
type Cache struct {
	RedisAddr  string `koanf:"redis_addr"`
	RedisDB    int    `koanf:"redis_db"`
	ContentTTL int    `koanf:"content_ttl"`
	ListingTTL int    `koanf:"listing_ttl"`
	MaxEntries int    `koanf:"max_entries"`
}

// ContentTTLOrDefault returns the configured content TTL, or one hour.
func (c Cache) ContentTTLOrDefault() time.Duration {
	if c.ContentTTL <= 0 {
		return time.Hour
	}
	return time.Duration(c.ContentTTL) * time.Second
}

// ListingTTLOrDefault returns the configured listing TTL, or thirty minutes.
func (c Cache) ListingTTLOrDefault() time.Duration {
	if c.ListingTTL <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ListingTTL) * time.Second
}

//
// Storage section
//

// Storage locates the per-site artifact tree and the optional static root a
// reverse proxy serves directly.  `SitesRoot` is relative to Paths.Root when
// not absolute.  `DeployRoot` empty disables the post-publish mirror.
type Storage struct {
	SitesRoot  string `koanf:"sites_root" validate:"required"`
	DeployRoot string `koanf:"deploy_root"`
}

//
// Domain section
//

// Domain names the apex under which tenant subdomains live, e.g.
// "pagemade.site".  Requests for the bare apex (or its www. variant) are
// routed to the main application, never to tenant content.
type Domain struct {
	Root string `koanf:"root" validate:"required,fqdn"`
}

//
// Editor section
//

// Editor points at the external editor origin that receives the short-lived
// editor-access token as a query parameter, plus the login URL token
// failures redirect to.
type Editor struct {
	Origin   string `koanf:"origin" validate:"required,url"`
	LoginURL string `koanf:"login_url" validate:"required"`
}

//
// Auth section
//

// Auth holds token-service settings.  `JWTSecret` is the HS256 signing key,
// normally a `vault:` reference.  Lifetimes are minutes in YAML; zero means
// the documented defaults (editor 24 h, access 15 m, refresh 7 d).
type Auth struct {
	JWTSecret     string `koanf:"jwt_secret" validate:"required,min=32"`
	EditorTTLMin  int    `koanf:"editor_ttl_min"`
	AccessTTLMin  int    `koanf:"access_ttl_min"`
	RefreshTTLMin int    `koanf:"refresh_ttl_min"`
}

//
// Geo section
//

// Geo optionally points at a GeoLite2 database.  When empty, serve logs
// simply omit the country tag.
type Geo struct {
	MMDBPath string `koanf:"mmdb_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or PAGEMADE_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Cache    Cache    `koanf:"cache"`
	Storage  Storage  `koanf:"storage"`
	Domain   Domain   `koanf:"domain"`
	Editor   Editor   `koanf:"editor"`
	Auth     Auth     `koanf:"auth"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"`
}
