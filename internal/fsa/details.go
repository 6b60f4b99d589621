package fsa

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikael-devkh/sistema/internal/model"
)

// RequestedFields are the issue fields needed to build Details
var RequestedFields = []string{
	"summary", "description", "created", "customfield_14954",
	"customfield_14829", "customfield_14825", "customfield_12374",
	"customfield_12271", "customfield_11948", "customfield_11993",
	"customfield_11994", "customfield_12036",
}

// Details is what the field app needs to know about a ticket's store
type Details struct {
	FsaID     string `json:"fsaId,omitempty"`
	StoreCode string `json:"storeCode,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	PDV       string `json:"pdv,omitempty"`
	Source    string `json:"source,omitempty"`
}

// FieldMapping names the Jira field ids configured for each attribute. Empty entries are skipped.
type FieldMapping struct {
	Address string
	City    string
	State   string
	Store   string
	PDV     string
}

var (
	addressTextRe = regexp.MustCompile(`(?i)Endereç[oa]:?[ \t]*(.+)`)
	cityTextRe    = regexp.MustCompile(`(?i)Cidad[ea]:?[ \t]*([\p{L} ]+)`)
	stateTextRe   = regexp.MustCompile(`(?i)\b(UF|Estado):?\s*([A-Z]{2})\b`)
	storeTextRe   = regexp.MustCompile(`(?i)Loja:?\s*(\d{3,5})`)
	storeDigitsRe = regexp.MustCompile(`\d{3,5}`)
)

// ParseDetails reads store details from an issue. Configured fields win over
// the known custom fields, which win over generic names. Whatever is still
// missing is parsed out of the summary and description text.
func ParseDetails(issue model.JiraIssue, mapping FieldMapping) Details {
	var out Details
	f := issue.Fields

	out.Address = firstField(f, mapping.Address, "customfield_12271", "customfield_address", "address", "endereco", "customfield_endereco")
	out.City = firstField(f, mapping.City, "customfield_11994", "cidade", "city", "customfield_city")
	if uf := firstField(f, mapping.State, "customfield_11948", "uf", "estado", "state", "customfield_state"); uf != "" {
		out.State = stateCode(uf)
	}
	for _, k := range []string{mapping.Store, "store", "codigoLoja", "customfield_store", "loja"} {
		if k == "" {
			continue
		}
		if code := storeDigitsRe.FindString(fieldString(f[k])); code != "" {
			out.StoreCode = code
			break
		}
	}
	out.PDV = firstField(f, mapping.PDV, "customfield_14829", "pdv")

	text := strings.TrimSpace(plainText(f["summary"]) + "\n\n" + plainText(f["description"]))
	if text == "" {
		return out
	}
	if out.Address == "" {
		if m := addressTextRe.FindStringSubmatch(text); m != nil {
			out.Address = strings.TrimSpace(m[1])
		}
	}
	if out.City == "" {
		if m := cityTextRe.FindStringSubmatch(text); m != nil {
			out.City = strings.TrimSpace(m[1])
		}
	}
	if out.State == "" {
		if m := stateTextRe.FindStringSubmatch(text); m != nil {
			out.State = strings.ToUpper(m[2])
		}
	}
	if out.StoreCode == "" {
		if m := storeTextRe.FindStringSubmatch(text); m != nil {
			out.StoreCode = m[1]
		}
	}
	return out
}

func firstField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if v := fieldString(fields[k]); v != "" {
			return v
		}
	}
	return ""
}

// fieldString flattens a field value. Select options ({"value": ...}) are unwrapped.
func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		if inner, ok := t["value"]; ok {
			return fieldString(inner)
		}
		if inner, ok := t["name"]; ok {
			return fieldString(inner)
		}
		return plainText(t)
	}
	return fmt.Sprint(v)
}

// plainText returns the text of a string field or of an Atlassian Document Format tree
func plainText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		if s, ok := t["text"].(string); ok {
			return s
		}
		var parts []string
		if content, ok := t["content"].([]any); ok {
			for _, c := range content {
				if s := plainText(c); s != "" {
					parts = append(parts, s)
				}
			}
		}
		sep := ""
		if typ, _ := t["type"].(string); typ == "doc" {
			sep = "\n"
		}
		return strings.Join(parts, sep)
	case []any:
		var parts []string
		for _, c := range t {
			if s := plainText(c); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

func stateCode(v string) string {
	r := []rune(strings.ToUpper(strings.TrimSpace(v)))
	if len(r) > 2 {
		r = r[:2]
	}
	return string(r)
}
