package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"meshalias/internal"
)

type Config struct {
	XMLPath   string
	JSONPath  string
	CSVPath   string
	XLSXPath  string
	DBPath    string
	OutputDir string

	SourceURL    string
	TimeoutMs    int
	RateLimitRPS int
	MaxAttempts  int
	UserAgent    string

	CategoryMarker string
	AliasPolicy    internal.AliasPolicy
	AliasFields    []string

	LogLevel string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		XMLPath:   getEnv("MESH_XML_PATH", filepath.Join(cwd, "rawData.xml")),
		JSONPath:  getEnv("MESH_JSON_PATH", filepath.Join(cwd, "MeSHConditions.json")),
		CSVPath:   getEnv("ALIAS_CSV_PATH", filepath.Join(cwd, "aliasToTerm.csv")),
		XLSXPath:  getEnv("ALIAS_XLSX_PATH", filepath.Join(cwd, "out", "aliasToTerm.xlsx")),
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "meshalias.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		SourceURL:    getEnv("MESH_SOURCE_URL", "https://nlmpubs.nlm.nih.gov/projects/mesh/MESH_FILES/xmlmesh/desc2025.xml"),
		TimeoutMs:    getEnvInt("MESH_TIMEOUT_MS", 600000),
		RateLimitRPS: getEnvInt("MESH_RATE_LIMIT_RPS", 2),
		MaxAttempts:  getEnvInt("MESH_MAX_ATTEMPTS", 5),
		UserAgent:    getEnv("MESH_USER_AGENT", "meshalias/1.0"),

		CategoryMarker: getEnv("MESH_CATEGORY_MARKER", "C"),
		AliasPolicy:    getEnvPolicy("MESH_ALIAS_POLICY", internal.AliasPolicyStrict),
		AliasFields:    getEnvList("ALIAS_FIELDS", []string{"alias", "term"}),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.CategoryMarker) == "" {
		return fmt.Errorf("MESH_CATEGORY_MARKER must not be empty")
	}
	switch c.AliasPolicy {
	case internal.AliasPolicyStrict, internal.AliasPolicySkip:
	default:
		return fmt.Errorf("unsupported MESH_ALIAS_POLICY: %s", c.AliasPolicy)
	}
	if len(c.AliasFields) != 2 {
		return fmt.Errorf("ALIAS_FIELDS must name exactly two columns, got %d", len(c.AliasFields))
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvPolicy(key string, fallback internal.AliasPolicy) internal.AliasPolicy {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	return internal.AliasPolicy(value)
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
