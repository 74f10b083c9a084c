package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A duplicata code is anchored on its parent invoice number: optional
// leading zeros, the invoice number, a separator ("-" or "/") and the
// installment digits.
//
//	021467-1  against invoice 21467 -> ok
//	21467/12  against invoice 21467 -> ok
//	0214671   against invoice 21467 -> malformed (no separator)
func ValidDuplicata(code string, invoiceNumber int) bool {
	if invoiceNumber <= 0 {
		return false
	}
	pattern := fmt.Sprintf(`^0*%d[-/]\d+$`, invoiceNumber)
	matched, err := regexp.MatchString(pattern, strings.TrimSpace(code))
	if err != nil {
		return false
	}
	return matched
}

// SuggestDuplicataCorrection repairs a duplicata whose invoice number is
// present but ran together with the installment digits. Best effort only:
// when the invoice number cannot be located in the code, the result is
// empty and the caller must keep the record invalid.
func SuggestDuplicataCorrection(code string, invoiceNumber int) string {
	if invoiceNumber <= 0 {
		return ""
	}
	code = strings.TrimSpace(code)
	invoice := strconv.Itoa(invoiceNumber)

	// Already well-formed; nothing to suggest.
	if ValidDuplicata(code, invoiceNumber) {
		return ""
	}

	// Strip a leading-zero run, then the invoice digits must follow.
	trimmed := strings.TrimLeft(code, "0")
	if !strings.HasPrefix(trimmed, invoice) {
		return ""
	}
	rest := trimmed[len(invoice):]

	// Separator present but installment malformed; not repairable here.
	if strings.HasPrefix(rest, "-") || strings.HasPrefix(rest, "/") {
		return ""
	}
	if rest == "" || !allDigits(rest) {
		return ""
	}
	zeros := code[:len(code)-len(trimmed)]
	return zeros + invoice + "-" + rest
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
