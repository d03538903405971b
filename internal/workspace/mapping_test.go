package workspace

import "testing"

func TestDefaultCanonicalExtensions(t *testing.T) {
	table := DefaultExtensionTable()
	want := map[Language]string{
		LanguagePython: ".py",
		LanguageScala:  ".scala",
		LanguageSQL:    ".sql",
		LanguageR:      ".r",
	}
	for lang, ext := range want {
		m, ok := table.Canonical(lang)
		if !ok || m.Extension != ext || m.ExportFormat != FormatSource || m.IsNotebookFormat {
			t.Errorf("Canonical(%s) = %+v, want %s SOURCE", lang, m, ext)
		}
	}
}

func TestForLanguageOrder(t *testing.T) {
	table := DefaultExtensionTable()
	got := table.ForLanguage(LanguagePython)
	want := []string{".py", ".ipynb", ".dbc"}
	if len(got) != len(want) {
		t.Fatalf("ForLanguage(PYTHON) = %v", got)
	}
	for i := range want {
		if got[i].Extension != want[i] {
			t.Errorf("position %d = %s, want %s", i, got[i].Extension, want[i])
		}
	}
	if !got[1].IsNotebookFormat || got[1].ExportFormat != FormatJupyter {
		t.Errorf(".ipynb should be a JUPYTER notebook format: %+v", got[1])
	}
}

func TestCanonicalOverride(t *testing.T) {
	table, err := NewExtensionTable(map[string]string{"python": "ipynb"})
	if err != nil {
		t.Fatal(err)
	}
	m, _ := table.Canonical(LanguagePython)
	if m.Extension != ".ipynb" {
		t.Errorf("expected .ipynb canonical, got %s", m.Extension)
	}
	got := table.ForLanguage(LanguagePython)
	if got[0].Extension != ".ipynb" || got[1].Extension != ".py" {
		t.Errorf("canonical should come first then table order: %v", got)
	}

	if _, err := NewExtensionTable(map[string]string{"scala": ".ipynb"}); err == nil {
		t.Error("expected error for extension not supported by language")
	}
	if _, err := NewExtensionTable(map[string]string{"julia": ".jl"}); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestForFile(t *testing.T) {
	table := DefaultExtensionTable()
	tests := []struct {
		name string
		lang Language
		ok   bool
	}{
		{"etl.py", LanguagePython, true},
		{"etl.ipynb", LanguagePython, true},
		{"query.sql", LanguageSQL, true},
		{"model.scala", LanguageScala, true},
		{"plot.r", LanguageR, true},
		{"archive.dbc", "", false},
		{"data.csv", "", false},
		{"README", "", false},
	}
	for _, tt := range tests {
		m, ok := table.ForFile(tt.name)
		if ok != tt.ok || (ok && m.Language != tt.lang) {
			t.Errorf("ForFile(%q) = %+v, %v", tt.name, m, ok)
		}
	}
}
