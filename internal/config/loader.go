// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `PAGEMADE_`, where `__` maps to “.”
     (e.g., `PAGEMADE_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, any leaf whose string value begins with `vault:` is resolved
through the Vault client (`vault:secret/pagemade#jwt_secret`), then the tree
is unmarshalled into strongly-typed structs, validated, enriched with the
runtime root path, and cached in an `atomic.Pointer` for lock-free reads.
`Reload()` simply calls `Load()` again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay, vault resolution.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • A missing or short `auth.jwt_secret` aborts startup here, never at
    request time.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/pagemade/pagemade/internal/vault"
)

var current atomic.Pointer[Config]

// SecretSource resolves one `vault:` reference.  *vault.Client satisfies it;
// tests may stub it.
type SecretSource interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

var _ SecretSource = (*vault.Client)(nil)

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves PAGEMADE_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("PAGEMADE_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves Vault references,
// validates, and caches Config.  secrets may be nil when no value in the
// tree uses the `vault:` prefix.
func Load(ctx context.Context, secrets SecretSource) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: PAGEMADE_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("PAGEMADE_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "PAGEMADE_")
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveVaultRefs(ctx, k, secrets); err != nil {
		zap.S().Errorw("config vault resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"root_domain", cfg.Domain.Root,
		"redis", cfg.Cache.RedisAddr != "",
		"root", root,
	)
	return &cfg, nil
}

/*──────────────────────── vault reference pass ─────────────────────────────*/

// resolveVaultRefs rewrites every `vault:mount/path#key` leaf in place.
// Resolved values are cached by the Vault client for one hour, so Reload()
// does not hammer the secret store.
func resolveVaultRefs(ctx context.Context, k *koanf.Koanf, secrets SecretSource) error {
	for _, key := range k.Keys() {
		s, ok := k.Get(key).(string)
		if !ok || !strings.HasPrefix(s, "vault:") {
			continue
		}
		if secrets == nil {
			return fmt.Errorf("config key %q references vault but no vault client is configured", key)
		}

		ref := strings.TrimPrefix(s, "vault:")
		path, field, found := strings.Cut(ref, "#")
		if !found || path == "" || field == "" {
			return fmt.Errorf("config key %q has malformed vault reference %q", key, s)
		}

		val, err := secrets.GetKV(ctx, path, field, time.Hour)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set %q: %w", key, err)
		}
		zap.S().Debugw("vault reference resolved", "key", key, "path", path)
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }

func Reload(ctx context.Context, secrets SecretSource) error {
	_, err := Load(ctx, secrets)
	return err
}
