// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingRequired indicates one or more required variables are unset or empty.
var ErrMissingRequired = errors.New("missing required configuration")

// Config holds the application configuration loaded from environment variables.
// It is read once at startup and never mutated afterwards.
type Config struct {
	WebhookSecret   string
	CompareBearer   string
	Branch          string
	StagingDir      string
	ProdDir         string
	GitHubToken     string
	GitHubUserAgent string

	// RepoMap maps owner/repo to the source prefix mirrored from it.
	RepoMap map[string]string
	// LocalMap maps owner/repo to its destination subfolder under ProdDir.
	LocalMap map[string]string

	ListenAddr        string
	DBPath            string
	AutoFetch         bool
	FetchConcurrency  int
	MaxCompareCommits int
	SerializeRepos    bool
	SweepInterval     time.Duration
	GitHubAPIURL      string
	GitHubRawURL      string
}

// Load reads configuration from environment variables and returns a validated Config.
// Required: ASSETSYNC_WEBHOOK_SECRET, ASSETSYNC_COMPARE_BEARER, ASSETSYNC_GITHUB_BRANCH,
// ASSETSYNC_STAGING_DIR, ASSETSYNC_PROD_DIR, ASSETSYNC_GITHUB_TOKEN,
// ASSETSYNC_GITHUB_USER_AGENT, ASSETSYNC_REPO_MAP, ASSETSYNC_LOCAL_MAP.
// Optional variables with defaults: ASSETSYNC_LISTEN_ADDR (0.0.0.0:3000),
// ASSETSYNC_DB_PATH (assetsync.db), ASSETSYNC_AUTO_FETCH (false),
// ASSETSYNC_FETCH_CONCURRENCY (4), ASSETSYNC_MAX_COMPARE_COMMITS (250),
// ASSETSYNC_SERIALIZE_REPOS (false), ASSETSYNC_SWEEP_INTERVAL (0, disabled),
// ASSETSYNC_GITHUB_API_URL and ASSETSYNC_GITHUB_RAW_URL (public GitHub).
func Load() (*Config, error) {
	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		WebhookSecret:   required("ASSETSYNC_WEBHOOK_SECRET"),
		CompareBearer:   required("ASSETSYNC_COMPARE_BEARER"),
		Branch:          required("ASSETSYNC_GITHUB_BRANCH"),
		StagingDir:      required("ASSETSYNC_STAGING_DIR"),
		ProdDir:         required("ASSETSYNC_PROD_DIR"),
		GitHubToken:     required("ASSETSYNC_GITHUB_TOKEN"),
		GitHubUserAgent: required("ASSETSYNC_GITHUB_USER_AGENT"),
		RepoMap:         parseMap(required("ASSETSYNC_REPO_MAP")),
		LocalMap:        parseMap(required("ASSETSYNC_LOCAL_MAP")),
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}
	if len(cfg.RepoMap) == 0 {
		return nil, errors.New("ASSETSYNC_REPO_MAP has no owner/repo;prefix entries")
	}

	cfg.ListenAddr = "0.0.0.0:3000"
	if v, ok := os.LookupEnv("ASSETSYNC_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}

	cfg.DBPath = "assetsync.db"
	if v, ok := os.LookupEnv("ASSETSYNC_DB_PATH"); ok {
		cfg.DBPath = v
	}

	var err error
	if cfg.AutoFetch, err = lookupBool("ASSETSYNC_AUTO_FETCH", false); err != nil {
		return nil, err
	}
	if cfg.SerializeRepos, err = lookupBool("ASSETSYNC_SERIALIZE_REPOS", false); err != nil {
		return nil, err
	}
	if cfg.FetchConcurrency, err = lookupPositiveInt("ASSETSYNC_FETCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.MaxCompareCommits, err = lookupPositiveInt("ASSETSYNC_MAX_COMPARE_COMMITS", 250); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("ASSETSYNC_SWEEP_INTERVAL"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ASSETSYNC_SWEEP_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("ASSETSYNC_SWEEP_INTERVAL must not be negative, got %s", parsed)
		}
		cfg.SweepInterval = parsed
	}

	cfg.GitHubAPIURL = os.Getenv("ASSETSYNC_GITHUB_API_URL")
	cfg.GitHubRawURL = os.Getenv("ASSETSYNC_GITHUB_RAW_URL")

	return cfg, nil
}

// parseMap parses "owner/repo;value|owner/repo2;value2". Entries without a
// ';' separator are ignored. Surrounding whitespace is trimmed from keys.
func parseMap(raw string) map[string]string {
	out := make(map[string]string)
	for _, entry := range strings.Split(raw, "|") {
		key, value, ok := strings.Cut(entry, ";")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

func lookupBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s has invalid boolean %q: %w", key, v, err)
	}
	return b, nil
}

func lookupPositiveInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid integer %q: %w", key, v, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
