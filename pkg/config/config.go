// Package config loads archview settings.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file, $XDG_CONFIG_HOME/archview/config.toml unless overridden
//  3. variables from .env files
//  4. process environment variables
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/render/mermaid"
)

const appName = "archview"

// Renderer names.
const (
	RendererMermaid  = "mermaid"
	RendererGraphviz = "graphviz"
)

// Config is the full configuration.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Render   RenderConfig   `toml:"render"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
	Mongo    MongoConfig    `toml:"mongo"`
	Artifact ArtifactConfig `toml:"artifact"`
}

// BackendConfig locates the requirements-analysis backend.
type BackendConfig struct {
	URL     string        `toml:"url"`
	Cookie  string        `toml:"cookie,omitempty"`
	Timeout time.Duration `toml:"timeout"`
	Retries int           `toml:"retries"`
}

// RenderConfig holds diagram defaults.
type RenderConfig struct {
	Direction     string `toml:"direction"`
	Renderer      string `toml:"renderer"`
	MermaidBinary string `toml:"mermaid_binary,omitempty"`
	Theme         string `toml:"theme,omitempty"`
	Strict        bool   `toml:"strict"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Disabled bool          `toml:"disabled"`
	Dir      string        `toml:"dir,omitempty"`
	TTL      time.Duration `toml:"ttl"`
	RedisURL string        `toml:"redis_url,omitempty"`
}

// ServerConfig configures "archview serve".
type ServerConfig struct {
	Addr         string `toml:"addr"`
	CacheEntries int    `toml:"cache_entries"`
}

// MongoConfig enables reading projects directly from MongoDB.
type MongoConfig struct {
	URI        string `toml:"uri,omitempty"`
	Database   string `toml:"database,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// ArtifactConfig selects where published diagrams go. S3 is used when
// Endpoint is set, Dir otherwise.
type ArtifactConfig struct {
	Dir       string `toml:"dir,omitempty"`
	Endpoint  string `toml:"endpoint,omitempty"`
	Region    string `toml:"region,omitempty"`
	AccessKey string `toml:"access_key,omitempty"`
	SecretKey string `toml:"secret_key,omitempty"`
	Bucket    string `toml:"bucket,omitempty"`
	UseSSL    bool   `toml:"use_ssl"`
	Prefix    string `toml:"prefix,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:     "http://localhost:8080",
			Timeout: 10 * time.Second,
			Retries: 3,
		},
		Render: RenderConfig{
			Direction: string(mermaid.TopDown),
			Renderer:  RendererMermaid,
			Strict:    true,
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:         ":8090",
			CacheEntries: 1024,
		},
		Artifact: ArtifactConfig{
			Region: "us-east-1",
			Bucket: "archview-artifacts",
			UseSSL: true,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/archview/config.toml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// LoadOptions controls [Load].
type LoadOptions struct {
	// Path of the TOML file. Empty uses [DefaultPath]. A missing file is
	// not an error.
	Path string
	// EnvFiles are read with godotenv. Missing files are skipped.
	// Nil means ".env" in the working directory.
	EnvFiles []string
	// Lookup reads process environment. Nil uses os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Result is a loaded configuration plus where it came from.
type Result struct {
	*Config
	// Path is the TOML file consulted.
	Path string
	// FileFound reports whether Path existed.
	FileFound bool
	// Unknown lists TOML keys that matched no setting.
	Unknown []string
}

// Load builds the layered configuration and validates it.
func Load(opts LoadOptions) (*Result, error) {
	cfg := Default()
	res := &Result{Config: cfg, Path: opts.Path}

	if res.Path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		res.Path = p
	}

	md, err := toml.DecodeFile(res.Path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "parse %s", res.Path)
	default:
		res.FileFound = true
		for _, k := range md.Undecoded() {
			res.Unknown = append(res.Unknown, k.String())
		}
	}

	env, err := readEnvFiles(opts.EnvFiles)
	if err != nil {
		return nil, err
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	applyEnv(cfg, func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	if files == nil {
		files = []string{".env"}
	}
	merged := map[string]string{}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		vals, err := godotenv.Read(f)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "read %s", f)
		}
		for k, v := range vals {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// applyEnv overrides cfg from environment variables. Unparseable numeric
// and boolean values are ignored.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	boolean := func(dst *bool, key string) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}
	duration := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok {
			if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
				*dst = d
			}
		}
	}
	integer := func(dst *int, key string) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	str(&cfg.Backend.URL, "ARCHVIEW_BACKEND_URL", "BACKEND_URL", "NEXT_PUBLIC_BACKEND_URL")
	str(&cfg.Backend.Cookie, "ARCHVIEW_COOKIE")
	duration(&cfg.Backend.Timeout, "ARCHVIEW_BACKEND_TIMEOUT")
	integer(&cfg.Backend.Retries, "ARCHVIEW_BACKEND_RETRIES")

	str(&cfg.Render.Direction, "ARCHVIEW_DIRECTION")
	str(&cfg.Render.Renderer, "ARCHVIEW_RENDERER")
	str(&cfg.Render.MermaidBinary, "ARCHVIEW_MMDC")
	boolean(&cfg.Render.Strict, "ARCHVIEW_STRICT")

	boolean(&cfg.Cache.Disabled, "ARCHVIEW_NO_CACHE")
	str(&cfg.Cache.Dir, "ARCHVIEW_CACHE_DIR")
	duration(&cfg.Cache.TTL, "ARCHVIEW_CACHE_TTL")
	str(&cfg.Cache.RedisURL, "ARCHVIEW_REDIS_URL", "REDIS_URL")

	str(&cfg.Server.Addr, "ARCHVIEW_ADDR")
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(strings.TrimSpace(v), ":")
	}
	integer(&cfg.Server.CacheEntries, "ARCHVIEW_SERVER_CACHE_ENTRIES")

	str(&cfg.Mongo.URI, "ARCHVIEW_MONGO_URI", "MONGO_URI")
	str(&cfg.Mongo.Database, "ARCHVIEW_MONGO_DATABASE")
	str(&cfg.Mongo.Collection, "ARCHVIEW_MONGO_COLLECTION")

	str(&cfg.Artifact.Dir, "ARCHVIEW_ARTIFACT_DIR")
	str(&cfg.Artifact.Endpoint, "ARTIFACT_S3_ENDPOINT")
	str(&cfg.Artifact.Region, "ARTIFACT_S3_REGION")
	str(&cfg.Artifact.AccessKey, "ARTIFACT_S3_ACCESS_KEY", "MINIO_ROOT_USER")
	str(&cfg.Artifact.SecretKey, "ARTIFACT_S3_SECRET_KEY", "MINIO_ROOT_PASSWORD")
	str(&cfg.Artifact.Bucket, "ARTIFACT_S3_BUCKET")
	boolean(&cfg.Artifact.UseSSL, "ARTIFACT_S3_USE_SSL")
}

// Validate checks enumerated and bounded settings.
func (c *Config) Validate() error {
	if err := apperr.ValidateURL(c.Backend.URL); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "backend.url")
	}
	if _, err := mermaid.ParseDirection(c.Render.Direction); err != nil {
		return err
	}
	switch c.Render.Renderer {
	case RendererMermaid, RendererGraphviz:
	default:
		return apperr.New(apperr.ErrCodeInvalidInput, "render.renderer must be %q or %q, got %q",
			RendererMermaid, RendererGraphviz, c.Render.Renderer)
	}
	if c.Backend.Retries < 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "backend.retries must not be negative")
	}
	if c.Server.CacheEntries < 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "server.cache_entries must not be negative")
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	cp := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	cp.Backend.Cookie = mask(cp.Backend.Cookie)
	cp.Artifact.SecretKey = mask(cp.Artifact.SecretKey)
	cp.Mongo.URI = mask(cp.Mongo.URI)
	cp.Cache.RedisURL = mask(cp.Cache.RedisURL)
	return &cp
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes c to path as TOML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
