package fsa

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fsaNumberRe = regexp.MustCompile(`(?i)(?:FSA\s*-?\s*)?(\d{2,6})`)
	storeCodeRe = regexp.MustCompile(`\b(\d{3,5})\b`)
	nonDigitRe  = regexp.MustCompile(`\D`)
)

// Normalize extracts the ticket number from inputs like "1234", "FSA 1234" or "FSA-1234".
// It returns "" when the input holds no number.
func Normalize(input string) string {
	m := fsaNumberRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractStoreCode returns the first standalone 3 to 5 digit run
func ExtractStoreCode(input string) string {
	m := storeCodeRe.FindStringSubmatch(input)
	if m == nil {
		return ""
	}
	return m[1]
}

// BuildJQLByNumber matches a ticket of the FSA project by key, text or summary, newest first
func BuildJQLByNumber(number string) (string, error) {
	n := nonDigitRe.ReplaceAllString(number, "")
	if n == "" {
		return "", fmt.Errorf("invalid FSA number %q", number)
	}
	key := "FSA-" + n
	return fmt.Sprintf(`project = FSA AND (key = "%s" OR text ~ "FSA %s" OR text ~ "%s" OR summary ~ "%s") ORDER BY created DESC`,
		key, n, key, n), nil
}

// AllFsaJQL lists every ticket of the FSA project, newest first
const AllFsaJQL = "project = FSA ORDER BY created DESC"
