package catalog

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label derives the display label for an identifier. Clips nested under
// directories are prefixed with the title-cased directory path in brackets;
// clips at the root are labelled by their stem alone.
func Label(identifier string) string {
	segments := strings.Split(normalizeIdentifier(identifier), "/")
	stem := stripExtension(segments[len(segments)-1])
	if len(segments) < 2 {
		return stem
	}
	category := strings.Join(segments[:len(segments)-1], "/")
	return "[" + titleCase(category) + "] " + stem
}

// Category returns the first path segment of an identifier.
func Category(identifier string) string {
	normalized := normalizeIdentifier(identifier)
	if idx := strings.IndexByte(normalized, '/'); idx >= 0 {
		return normalized[:idx]
	}
	return normalized
}

func stripExtension(name string) string {
	ext := path.Ext(name)
	if ext == "" || ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

func titleCase(value string) string {
	return cases.Title(language.Und).String(value)
}

func normalizeIdentifier(identifier string) string {
	return strings.ReplaceAll(identifier, "\\", "/")
}

// Title title-cases a category or directory path for display.
func Title(value string) string {
	return titleCase(value)
}
