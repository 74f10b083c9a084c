package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1234.56", "1234.56"},
		{"0,50", "0.50"},
		{"  150,00  ", "150.00"},
		{"1.000.000,99", "1000000.99"},
		{"", "0"},
	}
	for _, c := range cases {
		got, err := ParseDecimal(c.in)
		if err != nil {
			t.Errorf("ParseDecimal(%q) error: %v", c.in, err)
			continue
		}
		if want := decimal.RequireFromString(c.want); !got.Equal(want) {
			t.Errorf("ParseDecimal(%q) = %s, want %s", c.in, got, want)
		}
	}
}

func TestParseDecimal_Garbage(t *testing.T) {
	if _, err := ParseDecimal("R$ 10,00"); err == nil {
		t.Fatal("currency prefix must not parse")
	}
}

func TestNormalizeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Crédito Fácil", "credito facil"},
		{"  Indústria   São  Paulo ", "industria sao paulo"},
		{"CONTA GARANTIDA", "conta garantida"},
		{"açaí", "acai"},
	}
	for _, c := range cases {
		if got := NormalizeName(c.in); got != c.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestConvertToDate(t *testing.T) {
	// 2025-03-10 01:30 UTC is still 2025-03-09 in São Paulo (UTC-3).
	utc := time.Date(2025, 3, 10, 1, 30, 0, 0, time.UTC)
	got, err := ConvertToDate(utc, "America/Sao_Paulo")
	if err != nil {
		t.Fatal(err)
	}
	if got.Year() != 2025 || got.Month() != time.March || got.Day() != 9 {
		t.Fatalf("ConvertToDate = %s, want 2025-03-09", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("date not truncated to midnight: %s", got)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("UniqueSlice = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UniqueSlice = %v, want %v", got, want)
		}
	}
}
