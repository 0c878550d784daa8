package core

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvOrDefault returns the value of key, or defaultValue when it is unset
// or empty.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LookupEnvAllowEmpty returns the value of key even when it is set to the
// empty string. Unlike GetEnvOrDefault, an explicitly empty value wins.
func LookupEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// parseEnv trims the value of key and hands it to parse. Unset, empty and
// unparseable values all yield defaultValue.
func parseEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := parse(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// ParseIntEnv reads key as a base-10 int.
func ParseIntEnv(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

// ParseFloat64Env reads key as a float64. Exponents like 1e-3 are accepted.
func ParseFloat64Env(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseBoolEnv reads key as a switch: true/1/yes/on and false/0/no/off,
// in any case.
func ParseBoolEnv(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, parseSwitch)
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, strconv.ErrSyntax
}
