package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ValidationMode selects which title identifier the pipeline checks.
type ValidationMode string

const (
	ValidationModeDuplicata ValidationMode = "duplicata"
	ValidationModeSeuno     ValidationMode = "seuno"
)

// ValidationModeFromEnv reads PIPELINE_VALIDATION_MODE; defaults to duplicata.
func ValidationModeFromEnv() ValidationMode {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("PIPELINE_VALIDATION_MODE")))
	if v == string(ValidationModeSeuno) {
		return ValidationModeSeuno
	}
	return ValidationModeDuplicata
}

// AlertWindow is one daily interval during which at most one alert per
// client may be dispatched.
type AlertWindow struct {
	Label string
	Start time.Duration // offset from local midnight
	End   time.Duration
}

// Contains reports whether the wall-clock time of t falls inside the window.
func (w AlertWindow) Contains(t time.Time) bool {
	offset := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
	return offset >= w.Start && offset < w.End
}

// AlertWindowsFromEnv parses the two daily dispatch windows.
//
// Set via env ("HH:MM-HH:MM"):
// - ALERT_WINDOW_MORNING   (default "09:00-11:30")
// - ALERT_WINDOW_AFTERNOON (default "14:00-16:30")
func AlertWindowsFromEnv() ([]AlertWindow, error) {
	morning, err := parseWindow("morning", envOrDefault("ALERT_WINDOW_MORNING", "09:00-11:30"))
	if err != nil {
		return nil, err
	}
	afternoon, err := parseWindow("afternoon", envOrDefault("ALERT_WINDOW_AFTERNOON", "14:00-16:30"))
	if err != nil {
		return nil, err
	}
	return []AlertWindow{morning, afternoon}, nil
}

func parseWindow(label string, raw string) (AlertWindow, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "-", 2)
	if len(parts) != 2 {
		return AlertWindow{}, fmt.Errorf("alert window %s: expected HH:MM-HH:MM, got %q", label, raw)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return AlertWindow{}, fmt.Errorf("alert window %s: %w", label, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return AlertWindow{}, fmt.Errorf("alert window %s: %w", label, err)
	}
	if end <= start {
		return AlertWindow{}, fmt.Errorf("alert window %s: end before start in %q", label, raw)
	}
	return AlertWindow{Label: label, Start: start, End: end}, nil
}

func parseClock(raw string) (time.Duration, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", raw)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// ExcludedProductsFromEnv returns the product names whose proposals never
// alert. Comparison downstream is case- and accent-insensitive.
//
// Set via env:
// - ALERT_EXCLUDED_PRODUCTS="Conta Garantida,Cheque Empresarial"
func ExcludedProductsFromEnv() []string {
	raw := os.Getenv("ALERT_EXCLUDED_PRODUCTS")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AlertDedupRetentionDays controls the lazy prune horizon for dispatched
// alert markers.
//
// Set via env:
// - ALERT_DEDUP_RETENTION_DAYS (default 7)
func AlertDedupRetentionDays() int {
	n := intFromEnv("ALERT_DEDUP_RETENTION_DAYS", 7)
	if n <= 0 {
		return 7
	}
	return n
}

func envOrDefault(key string, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
