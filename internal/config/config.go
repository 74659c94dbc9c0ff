package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Match     MatchConfig
	Ingest    IngestConfig
	Extractor ExtractorConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	PublicURL      string   // base URL of the guest-facing client (e.g., https://snapx.example.com)
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
	TrustedProxies []string // IPs or CIDRs allowed to set X-Forwarded-For / X-Real-IP
}

// TrustedProxyPrefixes parses TrustedProxies. Plain addresses become
// single-host prefixes. Invalid entries are skipped and reported in the error.
func (c *ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	var errs []error
	for _, entry := range c.TrustedProxies {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid trusted proxy %q", entry))
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, errors.Join(errs...)
}

// CollectionURL returns the guest-facing link for a collection.
func (c *ServerConfig) CollectionURL(collectionID string) string {
	return strings.TrimSuffix(c.PublicURL, "/") + "/collections/" + collectionID
}

type AuthConfig struct {
	TokenSecret string // shared HMAC secret with the service issuing bearer tokens
}

type DatabaseConfig struct {
	Driver       string // postgres, mariadb or bolt
	URL          string // DSN for SQL drivers, file path for bolt
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type StorageConfig struct {
	Driver          string // minio or local
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
	PublicURL       string // base URL objects are served from, derived from the driver when empty
	LocalRoot       string // directory for the local driver
}

type MatchConfig struct {
	Dimension     int     // embedding length produced by the extractor (default 128)
	Threshold     float64 // maximum euclidean distance for a match (default 0.6)
	RatePerSecond float64 // per-client rate limit for find-my-photos
	RateBurst     int
}

type IngestConfig struct {
	MaxFiles         int   // files accepted per upload request (default 20)
	MaxUploadBytes   int64 // multipart memory limit
	Workers          int   // concurrent per-file workers
	ServerExtraction bool  // recompute embeddings with the extractor and ignore client vectors
}

type ExtractorConfig struct {
	URL string // face embedding server, optional
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float from the environment, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return b
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			PublicURL:      envString("PUBLIC_URL", "http://localhost:5173"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			TrustedProxies: envList("WEB_TRUSTED_PROXIES"),
		},
		Auth: AuthConfig{
			TokenSecret: os.Getenv("AUTH_TOKEN_SECRET"),
		},
		Database: DatabaseConfig{
			Driver:       envString("DATABASE_DRIVER", "postgres"),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			Driver:          envString("STORAGE_DRIVER", "local"),
			Endpoint:        os.Getenv("STORAGE_ENDPOINT"),
			AccessKeyID:     os.Getenv("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("STORAGE_SECRET_ACCESS_KEY"),
			Bucket:          envString("STORAGE_BUCKET", "snapx"),
			Region:          os.Getenv("STORAGE_REGION"),
			UseSSL:          envBool("STORAGE_USE_SSL", false),
			PublicURL:       os.Getenv("STORAGE_PUBLIC_URL"),
			LocalRoot:       envString("STORAGE_LOCAL_ROOT", "./data/media"),
		},
		Match: MatchConfig{
			Dimension:     envInt("EMBEDDING_DIM", 128),
			Threshold:     envFloat("MATCH_THRESHOLD", 0.6),
			RatePerSecond: envFloat("MATCH_RATE_PER_SECOND", 2),
			RateBurst:     envInt("MATCH_RATE_BURST", 5),
		},
		Ingest: IngestConfig{
			MaxFiles:         envInt("MAX_FILES_PER_UPLOAD", 20),
			MaxUploadBytes:   int64(envInt("MAX_UPLOAD_MB", 200)) << 20,
			Workers:          envInt("INGEST_WORKERS", 4),
			ServerExtraction: envBool("INGEST_SERVER_EXTRACTION", false),
		},
		Extractor: ExtractorConfig{
			URL: os.Getenv("EXTRACTOR_URL"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable is required"))
	}
	if c.Auth.TokenSecret == "" {
		errs = append(errs, errors.New("AUTH_TOKEN_SECRET environment variable is required"))
	}
	if c.Storage.Driver == "minio" && c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("STORAGE_ENDPOINT is required for the minio storage driver"))
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, fmt.Errorf("WEB_TRUSTED_PROXIES: %w", err))
	}
	if c.Ingest.ServerExtraction && c.Extractor.URL == "" {
		errs = append(errs, errors.New("EXTRACTOR_URL is required when INGEST_SERVER_EXTRACTION is enabled"))
	}
	return errors.Join(errs...)
}
