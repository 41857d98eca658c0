package config

import "os"

// EnvOrDefault returns the value of the environment variable key, or
// fallback when unset or empty.
func EnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
