package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/basel-ax/dallegen/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestEnsureConfigExists_CreatesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	store := NewCredentialStore(path)

	err := store.EnsureConfigExists()
	if !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("EnsureConfigExists() error = %v, want ErrConfigMissing", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("template was not written: %v", err)
	}
	content := string(data)
	for _, want := range []string{"[provider]", "organization_id", "secret_key"} {
		if !strings.Contains(content, want) {
			t.Errorf("template %q does not contain %q", content, want)
		}
	}
}

func TestEnsureConfigExists_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	store := NewCredentialStore(path)

	if err := store.EnsureConfigExists(); !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("first call error = %v, want ErrConfigMissing", err)
	}
	first, _ := os.ReadFile(path)

	if err := store.EnsureConfigExists(); err != nil {
		t.Fatalf("second call error = %v, want nil", err)
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Errorf("template changed between calls: %q -> %q", first, second)
	}

	// An operator-edited file is never overwritten
	edited := "[provider]\norganization_id = org\nsecret_key = sk\n"
	writeFile(t, path, edited)
	if err := store.EnsureConfigExists(); err != nil {
		t.Fatalf("third call error = %v, want nil", err)
	}
	third, _ := os.ReadFile(path)
	if string(third) != edited {
		t.Errorf("edited file was overwritten: %q", third)
	}
}

func TestEnsureConfigExists_RemovesPartialTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	store := NewCredentialStore(path)
	store.writeTemplate = func(w io.Writer) error {
		w.Write([]byte("[prov"))
		return errors.New("disk full")
	}

	err := store.EnsureConfigExists()
	if !domain.IsKind(err, domain.KindConfigInvalid) {
		t.Fatalf("EnsureConfigExists() error = %v, want config_invalid", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("partial template left behind: %v", statErr)
	}

	// The next start writes a complete template
	store.writeTemplate = writeTemplate
	if err := store.EnsureConfigExists(); !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("EnsureConfigExists() error = %v, want ErrConfigMissing", err)
	}
	if data, _ := os.ReadFile(path); !strings.Contains(string(data), "[provider]") {
		t.Errorf("template not rewritten: %q", data)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	store := NewCredentialStore(path)

	_, err := store.Load()
	if !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("Load() error = %v, want ErrConfigMissing", err)
	}
	if !domain.IsFatal(err) {
		t.Error("missing config must be fatal")
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("template not created: %v", statErr)
	}
}

func TestLoad_StripsQuotes(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "double quoted", value: `"abc"`},
		{name: "single quoted", value: `'abc'`},
		{name: "bare", value: `abc`},
		{name: "nested quotes", value: `"'abc'"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config")
			writeFile(t, path, "[provider]\norganization_id="+tt.value+"\nsecret_key="+tt.value+"\n")

			creds, err := NewCredentialStore(path).Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if creds.OrganizationID != "abc" {
				t.Errorf("OrganizationID = %q, want %q", creds.OrganizationID, "abc")
			}
			if creds.SecretKey != "abc" {
				t.Errorf("SecretKey = %q, want %q", creds.SecretKey, "abc")
			}
		})
	}
}

func TestLoad_LegacySection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	writeFile(t, path, "[openai]\norganization_id=org-123\nsecret_key=sk-456\n")

	creds, err := NewCredentialStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := domain.Credentials{OrganizationID: "org-123", SecretKey: "sk-456"}
	if creds != want {
		t.Errorf("Load() = %+v, want %+v", creds, want)
	}
}

func TestLoad_CaseInsensitiveKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	writeFile(t, path, "[openai]\nOrganization_ID=org-123\nSECRET_KEY=sk-456\n")

	creds, err := NewCredentialStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := domain.Credentials{OrganizationID: "org-123", SecretKey: "sk-456"}
	if creds != want {
		t.Errorf("Load() = %+v, want %+v", creds, want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "template left empty", content: "[provider]\norganization_id=\nsecret_key=\n"},
		{name: "missing section", content: "[other]\norganization_id=org\nsecret_key=sk\n"},
		{name: "missing secret key", content: "[provider]\norganization_id=org\n"},
		{name: "missing organization", content: "[provider]\nsecret_key=sk\n"},
		{name: "empty quoted value", content: "[provider]\norganization_id=\"\"\nsecret_key=sk\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config")
			writeFile(t, path, tt.content)

			_, err := NewCredentialStore(path).Load()
			if !domain.IsKind(err, domain.KindConfigInvalid) {
				t.Fatalf("Load() error = %v, want config_invalid", err)
			}
		})
	}
}
