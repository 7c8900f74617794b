package flagx

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString overwrites *dst with the value of key when it is set and non-empty.
func EnvString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// EnvInt overwrites *dst when key holds a valid integer.
func EnvInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = n
	}
}

// EnvDuration overwrites *dst when key holds a value accepted by time.ParseDuration.
func EnvDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
		*dst = d
	}
}

// EnvList overwrites *dst with the comma separated, trimmed, non-empty items of key.
func EnvList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	*dst = SplitList(v)
}

// SplitList splits a comma separated list and drops blank items.
func SplitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
