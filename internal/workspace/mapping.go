package workspace

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileExtensionMapping ties a local file extension to the export format and
// language used when the notebook is transferred.
type FileExtensionMapping struct {
	Extension        string
	Language         Language
	ExportFormat     ExportFormat
	IsNotebookFormat bool // packaged notebook, no textual diff possible
}

// IsZero reports an unset mapping.
func (m FileExtensionMapping) IsZero() bool {
	return m.Extension == ""
}

// defaultMappings is in table order. The first entry of each language is its
// default canonical extension.
var defaultMappings = []FileExtensionMapping{
	{".py", LanguagePython, FormatSource, false},
	{".ipynb", LanguagePython, FormatJupyter, true},
	{".dbc", LanguagePython, FormatDBC, true},
	{".scala", LanguageScala, FormatSource, false},
	{".dbc", LanguageScala, FormatDBC, true},
	{".sql", LanguageSQL, FormatSource, false},
	{".dbc", LanguageSQL, FormatDBC, true},
	{".r", LanguageR, FormatSource, false},
	{".dbc", LanguageR, FormatDBC, true},
}

// ExtensionTable resolves extensions per language, with one canonical
// extension per language.
type ExtensionTable struct {
	mappings  []FileExtensionMapping
	canonical map[Language]FileExtensionMapping
}

// DefaultExtensionTable returns the table without overrides.
func DefaultExtensionTable() *ExtensionTable {
	t, _ := NewExtensionTable(nil)
	return t
}

// NewExtensionTable builds the table. overrides maps a language name
// (case-insensitive) to the extension that should be canonical for it; the
// extension must be one the language supports.
func NewExtensionTable(overrides map[string]string) (*ExtensionTable, error) {
	t := &ExtensionTable{
		mappings:  append([]FileExtensionMapping(nil), defaultMappings...),
		canonical: make(map[Language]FileExtensionMapping),
	}
	for _, m := range t.mappings {
		if _, ok := t.canonical[m.Language]; !ok {
			t.canonical[m.Language] = m
		}
	}

	for name, ext := range overrides {
		lang, err := ParseLanguage(name)
		if err != nil {
			return nil, fmt.Errorf("export_formats: %w", err)
		}
		ext = normalizeExtension(ext)
		m, ok := t.find(lang, ext)
		if !ok {
			return nil, fmt.Errorf("export_formats: extension %q is not supported for %s", ext, lang)
		}
		t.canonical[lang] = m
	}
	return t, nil
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func (t *ExtensionTable) find(lang Language, ext string) (FileExtensionMapping, bool) {
	for _, m := range t.mappings {
		if m.Language == lang && m.Extension == ext {
			return m, true
		}
	}
	return FileExtensionMapping{}, false
}

// Canonical returns the canonical mapping of lang.
func (t *ExtensionTable) Canonical(lang Language) (FileExtensionMapping, bool) {
	m, ok := t.canonical[lang]
	return m, ok
}

// ForLanguage returns every mapping of lang, canonical first and the rest in
// table order.
func (t *ExtensionTable) ForLanguage(lang Language) []FileExtensionMapping {
	canon, ok := t.canonical[lang]
	if !ok {
		return nil
	}
	out := []FileExtensionMapping{canon}
	for _, m := range t.mappings {
		if m.Language == lang && m.Extension != canon.Extension {
			out = append(out, m)
		}
	}
	return out
}

// ForFile finds the mapping for a local file name. Extensions shared by
// several languages (.dbc) are ambiguous and report false.
func (t *ExtensionTable) ForFile(name string) (FileExtensionMapping, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return FileExtensionMapping{}, false
	}
	var found []FileExtensionMapping
	for _, m := range t.mappings {
		if m.Extension == ext {
			found = append(found, m)
		}
	}
	if len(found) != 1 {
		return FileExtensionMapping{}, false
	}
	return found[0], true
}

// IsCanonical reports whether m is the canonical mapping of its language.
func (t *ExtensionTable) IsCanonical(m FileExtensionMapping) bool {
	return t.canonical[m.Language] == m
}
