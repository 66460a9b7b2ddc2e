package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/language"

	"github.com/yzzting/commit-crafter/internal/prompt"
)

// FileName is the configuration file inside a config directory.
const FileName = "config.toml"

// Recognised keys.
const (
	KeyAPIKey   = "openai_api_key"
	KeyURL      = "openai_url"
	KeyModel    = "openai_model"
	KeyLanguage = "user_language"
)

// DefaultLanguage is the language messages are written in unless configured.
const DefaultLanguage = "en"

// ErrUnknownKey is returned for any key other than the four recognised ones.
var ErrUnknownKey = errors.New("unknown config key")

// Config represents the commit-crafter configuration.
type Config struct {
	OpenAIAPIKey string `toml:"openai_api_key"`
	OpenAIURL    string `toml:"openai_url"`
	OpenAIModel  string `toml:"openai_model"`
	UserLanguage string `toml:"user_language"`
}

// Keys returns the recognised keys in canonical order.
func Keys() []string {
	return []string{KeyAPIKey, KeyURL, KeyModel, KeyLanguage}
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{UserLanguage: DefaultLanguage}
}

// GenerateTOML renders the default configuration file.
func GenerateTOML() string {
	s, err := encode(Default())
	if err != nil {
		// Encoding a flat struct of strings cannot fail.
		panic(err)
	}
	return s
}

func encode(cfg Config) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return buf.String(), nil
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// LoadFile loads config from dir. Returns zero Config and nil error if the
// file doesn't exist.
func LoadFile(dir string) (Config, error) {
	cfg, _, err := loadFile(dir)
	return cfg, err
}

func loadFile(dir string) (Config, toml.MetaData, error) {
	path := Path(dir)
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, toml.MetaData{}, nil
		}
		return Config{}, toml.MetaData{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, meta, fmt.Errorf("%w in %s: %s", ErrUnknownKey, path, strings.Join(keys, ", "))
	}
	return cfg, meta, nil
}

// Save writes cfg to dir atomically, creating dir if needed.
func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := encode(cfg)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(Path(dir), []byte(data), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// EnsureInitialized writes the default config.toml and prompt.toml into dir
// when they are missing. It reports whether config.toml was created.
func EnsureInitialized(dir string) (bool, error) {
	return ensureInitialized(dir, GenerateTOML())
}

// EnsureProjectInitialized is EnsureInitialized for a per-repository
// directory. Every key is written empty so the global file and the built-in
// defaults still apply until the user sets a project value.
func EnsureProjectInitialized(dir string) (bool, error) {
	body, err := encode(Config{})
	if err != nil {
		return false, err
	}
	return ensureInitialized(dir, body)
}

func ensureInitialized(dir, body string) (bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	created := false
	if _, err := os.Stat(Path(dir)); errors.Is(err, os.ErrNotExist) {
		if err := renameio.WriteFile(Path(dir), []byte(body), 0o600); err != nil {
			return false, fmt.Errorf("writing config file: %w", err)
		}
		created = true
	} else if err != nil {
		return false, fmt.Errorf("checking config file: %w", err)
	}
	if _, err := prompt.WriteDefault(dir); err != nil {
		return created, err
	}
	return created, nil
}

// Load builds the effective config by merging:
// defaults <- global file <- project file <- env.
func Load(paths Paths) (Config, error) {
	cfg := Default()

	for _, dir := range []string{paths.Global, paths.Project} {
		if dir == "" {
			continue
		}
		fileCfg, meta, err := loadFile(dir)
		if err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, fileCfg, meta); err != nil {
			return Config{}, fmt.Errorf("%s: %w", Path(dir), err)
		}
	}
	mergeEnv(&cfg)

	return cfg, nil
}

// mergeFile copies keys the file actually defines. Empty strings never
// override a lower layer.
func mergeFile(dst *Config, src Config, meta toml.MetaData) error {
	for _, key := range Keys() {
		if !meta.IsDefined(key) {
			continue
		}
		v, _ := Get(src, key)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if err := Set(dst, key, v); err != nil {
			return err
		}
	}
	return nil
}

// Environment variables consulted by Load.
const (
	EnvAPIKey       = "COMMIT_CRAFTER_OPENAI_API_KEY"
	EnvURL          = "COMMIT_CRAFTER_OPENAI_URL"
	EnvModel        = "COMMIT_CRAFTER_OPENAI_MODEL"
	EnvLanguage     = "COMMIT_CRAFTER_USER_LANGUAGE"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

func mergeEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if v := os.Getenv(EnvURL); v != "" {
		cfg.OpenAIURL = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.OpenAIModel = v
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		cfg.UserLanguage = v
	}
}

// Get returns the value of a single key.
func Get(cfg Config, key string) (string, error) {
	switch key {
	case KeyAPIKey:
		return cfg.OpenAIAPIKey, nil
	case KeyURL:
		return cfg.OpenAIURL, nil
	case KeyModel:
		return cfg.OpenAIModel, nil
	case KeyLanguage:
		return cfg.UserLanguage, nil
	default:
		return "", unknownKey(key)
	}
}

// Set sets a single config field by key name after validating the value.
func Set(cfg *Config, key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	switch key {
	case KeyAPIKey:
		cfg.OpenAIAPIKey = value
	case KeyURL:
		cfg.OpenAIURL = value
	case KeyModel:
		cfg.OpenAIModel = value
	case KeyLanguage:
		cfg.UserLanguage = value
	}
	return nil
}

// Validate checks value for key. Empty values are always accepted.
func Validate(key, value string) error {
	switch key {
	case KeyAPIKey, KeyModel:
		return nil
	case KeyURL:
		if value == "" {
			return nil
		}
		u, err := url.Parse(value)
		if err != nil {
			return fmt.Errorf("%s: %w", KeyURL, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", KeyURL, value)
		}
		return nil
	case KeyLanguage:
		if value == "" {
			return nil
		}
		if _, err := language.Parse(value); err != nil {
			return fmt.Errorf("%s must be a BCP 47 language tag such as \"en\" or \"zh-CN\": %w", KeyLanguage, err)
		}
		return nil
	default:
		return unknownKey(key)
	}
}

func unknownKey(key string) error {
	if s := suggestKey(key); s != "" {
		return fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownKey, key, s)
	}
	return fmt.Errorf("%w: %s (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
}

// suggestKey returns the known key closest to key, or "".
func suggestKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	normalized := strings.ReplaceAll(strings.ToLower(key), "-", "_")
	if ranks := fuzzy.RankFindNormalizedFold(normalized, Keys()); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", 4
	for _, k := range Keys() {
		if d := fuzzy.LevenshteinDistance(normalized, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// MaskSecret hides all but the last four characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", 8) + s[len(s)-4:]
}
