package templates

import (
	"encoding/json"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"join":    strings.Join,
		"trim":    strings.TrimSpace,
		"upper":   cases.Upper(language.Und).String,
		"lower":   cases.Lower(language.Und).String,
		"title":   cases.Title(language.English).String,
		"replace": strings.ReplaceAll,
		"indent":  indentString,
		"default": defaultValue,
		"quote":   strconv.Quote,
		"json":    toJSON,
	}
}

// indentString indents every non-empty line of s.
func indentString(indent int, s string) string {
	if s == "" {
		return s
	}
	prefix := strings.Repeat(" ", indent)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// defaultValue returns def when value is nil or an empty string.
func defaultValue(def, value any) any {
	if value == nil {
		return def
	}
	if s, ok := value.(string); ok && s == "" {
		return def
	}
	return value
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
