package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func getPort(key string, def uint16) (uint16, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	p, err := strconv.ParseUint(v, 10, 16)
	if err != nil || p == 0 {
		return 0, fmt.Errorf("%s must be a port number, got %q", key, v)
	}
	return uint16(p), nil
}

func getPositiveInt(key string, def int) (int, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

// getByte accepts a single literal character or a hex byte such as 0x16.
func getByte(key string, def byte) (byte, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	if len(v) == 1 {
		return v[0], nil
	}
	if strings.HasPrefix(strings.ToLower(v), "0x") {
		b, err := strconv.ParseUint(v[2:], 16, 8)
		if err == nil {
			return byte(b), nil
		}
	}
	return 0, fmt.Errorf("%s must be one character or a hex byte like 0x16, got %q", key, v)
}
