// cmd/web/main.go
//
// PageMade – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Start daily rotating logger (tees to console when running in a TTY).
//
//  2. Optional Vault client (VAULT_ADDR set), then layered config:
//     conf/.env → conf/global.yaml → PAGEMADE_* env → vault: refs.
//
//  3. Open control-plane DB and log published-site count.
//
//  4. Build page cache (Redis + in-process LRU), token service, tenant
//     cache, publisher, and page server.
//
//  5. Wire the route tree: tenant hosts go to the page server, the root
//     domain carries the editor API, publish endpoints, /metrics and
//     /healthz.
//
//  6. Serve until SIGINT/SIGTERM, then drain with a 10 s grace period.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pagemade/pagemade/internal/config"
	"github.com/pagemade/pagemade/internal/database"
	"github.com/pagemade/pagemade/internal/logger"
	"github.com/pagemade/pagemade/internal/pagecache"
	"github.com/pagemade/pagemade/internal/pageserver"
	"github.com/pagemade/pagemade/internal/publisher"
	"github.com/pagemade/pagemade/internal/server"
	"github.com/pagemade/pagemade/internal/tenant"
	"github.com/pagemade/pagemade/internal/token"
	"github.com/pagemade/pagemade/internal/vault"
	"github.com/pagemade/pagemade/internal/visitor"
	"github.com/pagemade/pagemade/internal/web"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// resolvePath anchors rel to root unless rel is already absolute.
func resolvePath(root, rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(root, rel)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootDir, _ := os.Getwd()
	log, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		os.Stderr.WriteString("start logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 1.  Secrets + config ────────────────────────────────────────────
	//
	var secrets config.SecretSource
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx)
		if err != nil {
			log.Fatalw("vault client", "err", err)
		}
		secrets = vc
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		log.Fatalw("load config", "err", err)
	}

	//
	// ── 2.  Control-plane DB ────────────────────────────────────────────
	//
	db, err := database.OpenWithOptions(cfg.Database.DSN, 25, 10)
	if err != nil {
		log.Fatalw("connect db", "err", err)
	}
	defer db.Close()

	// Published-site count as an early sanity check.
	var published int
	_ = db.Get(&published, `SELECT COUNT(*) FROM site WHERE is_published = TRUE`)
	log.Infow("control-plane DB online", "published_sites", published)

	//
	// ── 3.  Geo + visitor enrichment ────────────────────────────────────
	//
	if err := visitor.InitGeo(resolvePath(cfg.Paths.Root, cfg.Geo.MMDBPath)); err != nil {
		// Geo tagging is decorative; a missing database must not stop boot.
		log.Warnw("geoip disabled", "err", err)
	}

	//
	// ── 4.  Cache, tokens, tenants, pipeline ────────────────────────────
	//
	cache := pagecache.New(pagecache.Options{
		RedisAddr:  cfg.Cache.RedisAddr,
		RedisDB:    cfg.Cache.RedisDB,
		ContentTTL: cfg.Cache.ContentTTLOrDefault(),
		ListingTTL: cfg.Cache.ListingTTLOrDefault(),
		MaxEntries: cfg.Cache.MaxEntries,
	})
	defer cache.Close()

	tokens, err := token.New(cfg.Auth.JWTSecret, cache, token.Options{
		EditorTTL:  time.Duration(cfg.Auth.EditorTTLMin) * time.Minute,
		AccessTTL:  time.Duration(cfg.Auth.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.Auth.RefreshTTLMin) * time.Minute,
	})
	if err != nil {
		log.Fatalw("token service", "err", err)
	}

	tenants := tenant.New(db, tenant.IdleTTL, tenant.MaxEntries)
	defer tenants.Stop()

	sitesRoot := resolvePath(cfg.Paths.Root, cfg.Storage.SitesRoot)
	deployRoot := resolvePath(cfg.Paths.Root, cfg.Storage.DeployRoot)

	pub := publisher.New(db, cache, tenants, sitesRoot, deployRoot)
	pages := pageserver.New(db, cache, sitesRoot)

	//
	// ── 5.  Route tree + server ─────────────────────────────────────────
	//
	handlers := &web.Handlers{
		DB:           db,
		Cache:        cache,
		Tokens:       tokens,
		Pub:          pub,
		RootDomain:   cfg.Domain.Root,
		EditorOrigin: cfg.Editor.Origin,
		LoginURL:     cfg.Editor.LoginURL,
	}
	root := web.Router(handlers, tenants, pages, cfg.HTTP.ForceHTTPS)

	srv := server.New(cfg.HTTP.ListenAddr, root)
	go func() {
		log.Infow("listening", "addr", srv.Addr, "domain", cfg.Domain.Root)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("serve", "err", err)
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Errorw("shutdown", "err", err)
	}
}
