package validation

import (
	"strconv"
	"strings"
)

// ValidationType is the closed taxonomy attached to invalid proposals.
// External report consumers switch on these values, not on reason text.
type ValidationType string

const (
	ValidationFormat   ValidationType = "format"
	ValidationChecksum ValidationType = "checksum"
	ValidationRange    ValidationType = "range"
)

// seunoWeights is the fixed weight vector of the boleto check-digit scheme.
var seunoWeights = [13]int{2, 7, 6, 5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// SeunoCheckDigit computes the positional modulo-11 check digit of a seuno.
//
// The input vector is [1, 9] followed by the first 11 digits of the seuno;
// raw = 11 - (dot(vector, weights) mod 11), with 11 mapping to "0" and 10
// mapping to "P". Returns "" when fewer than 11 digits are available.
func SeunoCheckDigit(seuno string) string {
	digits := digitRunes(seuno)
	if len(digits) < 11 {
		return ""
	}

	vector := [13]int{1, 9}
	for i := 0; i < 11; i++ {
		vector[i+2] = int(digits[i] - '0')
	}

	dot := 0
	for i := 0; i < 13; i++ {
		dot += vector[i] * seunoWeights[i]
	}

	raw := 11 - dot%11
	switch raw {
	case 11:
		return "0"
	case 10:
		return "P"
	default:
		return strconv.Itoa(raw)
	}
}

// ValidateSeuno checks length, assigned range and check digit. The reason
// string is stable per failure mode and surfaced verbatim on the invalid
// record; the ValidationType is the machine-readable tag.
func ValidateSeuno(seuno string, rangePrefix string) (bool, ValidationType, string) {
	seuno = strings.TrimSpace(seuno)

	body := seunoBody(seuno)
	if len(body) < 12 {
		return false, ValidationFormat, "seuno has fewer than 12 characters"
	}
	if rangePrefix != "" && !strings.HasPrefix(body, rangePrefix) {
		return false, ValidationRange, "seuno outside the range assigned to the client"
	}

	pos12 := body[11]
	if !isSeunoDigit(pos12) {
		return false, ValidationFormat, "seuno position 12 is not a digit or P"
	}

	expected := SeunoCheckDigit(body)
	if expected == "" || string(pos12) != expected {
		return false, ValidationChecksum, "seuno check digit does not match"
	}
	return true, "", ""
}

// seunoBody keeps the digits and the literal P, dropping any formatting
// noise (dots, dashes, spaces) the source system may carry.
func seunoBody(seuno string) string {
	var b strings.Builder
	for _, r := range seuno {
		if (r >= '0' && r <= '9') || r == 'P' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isSeunoDigit(c byte) bool {
	return (c >= '0' && c <= '9') || c == 'P'
}

func digitRunes(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return out
}
