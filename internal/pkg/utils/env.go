package utils

import "os"

// GetEnv returns the value of the environment variable or fallback when it is
// unset or empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
