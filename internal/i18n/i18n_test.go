package i18n

import "testing"

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("es-DO,es;q=0.8") != "es" {
		t.Fatalf("expected es")
	}
	if DetectLanguage("") != "es" {
		t.Fatalf("expected default es")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "denied") != "Permission denied." {
		t.Fatalf("unexpected en translation")
	}
	if T("es", "denied") != "No tiene permiso." {
		t.Fatalf("unexpected es translation")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to es translation if exists
	if T("fr", "denied") != "No tiene permiso." {
		t.Fatalf("expected es fallback for fr lang")
	}
}
