package env

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt parses key as an integer, returning def when unset or malformed.
func GetEnvInt(key string, def int) int {
	raw := strings.TrimSpace(GetEnv(key, ""))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[Env] %s=%q is not an integer, using %d", key, raw, def)
		return def
	}
	return val
}

// GetEnvBool accepts the strconv.ParseBool forms.
func GetEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(GetEnv(key, ""))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("[Env] %s=%q is not a boolean, using %t", key, raw, def)
		return def
	}
	return val
}

// GetEnvDuration accepts Go durations ("90s") and plain seconds ("90").
func GetEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(GetEnv(key, ""))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("[Env] %s=%q is not a duration, using %s", key, raw, def)
		return def
	}
	return val
}

// Location returns the application time zone used for usage buckets.
func Location() *time.Location {
	name := GetEnv("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[Env] unknown APP_TIMEZONE %q, using UTC", name)
		return time.UTC
	}
	return loc
}

func SetupEnvFile() {
	// Look for .env file in project root
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/proposalcraft to project root
		"../../../.env", // Fallback for deeper nesting
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	// Containers pass configuration through the OS environment only.
	Env = map[string]string{}
	log.Printf("[Env] no .env file found, reading configuration from the environment")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
