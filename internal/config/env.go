package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

// must records an error for a required variable that is unset.
func (l *loader) must(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		l.errs = append(l.errs, fmt.Errorf("missing required env var: %s", k))
	}
	return v
}

func (l *loader) envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	l.errs = append(l.errs, fmt.Errorf("invalid bool for %s: %q", k, v))
	return d
}

func (l *loader) envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid int for %s: %q", k, v))
		return d
	}
	return n
}

func (l *loader) envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid duration for %s: %q", k, v))
		return d
	}
	return dur
}

func envList(k, d string) []string {
	var out []string
	for _, p := range strings.Split(getenv(k, d), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (l *loader) oneOf(k, d string, allowed ...string) string {
	v := strings.ToLower(getenv(k, d))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	l.errs = append(l.errs, fmt.Errorf("invalid value for %s: %q (want one of %s)", k, v, strings.Join(allowed, ", ")))
	return d
}
