package utils

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds the raw values of config.yaml. Every key can be overridden by
// an environment variable of the same name.
type Config map[string]string

var (
	config   = Config{}
	configMu sync.RWMutex
	loadOnce sync.Once
)

var defaults = Config{
	"APP_PORT":               "8080",
	"TIMEZONE":               "America/Sao_Paulo",
	"DB_DRIVER":              "postgres",
	"DB_PORT":                "5432",
	"STORAGE_PROVIDER":       "postgres",
	"TREE_DRIVER":            "firebase",
	"SURREAL_NS":             "prazocerto",
	"SURREAL_DB":             "prazocerto",
	"RECOVERY_ENABLED":       "false",
	"RECOVERY_INITIAL_DELAY": "5s",
	"RECOVERY_MAX_DELAY":     "5m",
	"RECOVERY_MULTIPLIER":    "2",
	"RECOVERY_MAX_ATTEMPTS":  "0",
	"IMAGE_DIR":              "./uploads",
	"IMAGE_MAX_WIDTH":        "1024",
	"GEMINI_MODEL":           "gemini-1.5-flash",
	"GEMINI_BASE_URL":        "https://generativelanguage.googleapis.com/v1beta",
	"NOTIFY_INTERVAL":        "1h",
	"LOG_FILE":               "./logs/prazo-certo.log",
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// LoadConfig reads the yaml file once. A missing file is not fatal, the
// environment and the defaults still apply.
func LoadConfig() {
	loadOnce.Do(func() {
		if err := ReloadConfig(configPath()); err != nil {
			log.Printf("Error loading config: %s\n", err)
		}
	})
}

// ReloadConfig replaces the file values with the contents of path.
func ReloadConfig(path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	values := Config{}
	if err := yaml.Unmarshal(file, &values); err != nil {
		return err
	}

	configMu.Lock()
	config = values
	configMu.Unlock()
	return nil
}

func GetConfig(key string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	configMu.RLock()
	v, ok := config[key]
	configMu.RUnlock()
	if ok && v != "" {
		return v
	}
	return defaults[key]
}

func GetConfigInt(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(GetConfig(key)))
	if err != nil {
		return 0
	}
	return n
}

func GetConfigFloat(key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(GetConfig(key)), 64)
	if err != nil {
		return 0
	}
	return f
}

func GetConfigBool(key string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(GetConfig(key)))
	return err == nil && b
}

func GetConfigDuration(key string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(GetConfig(key)))
	if err != nil {
		return 0
	}
	return d
}

// GetConfigList splits a comma separated value, dropping blanks.
func GetConfigList(key string) []string {
	var out []string
	for _, part := range strings.Split(GetConfig(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
