package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/basel-ax/dallegen/internal/domain"
)

const (
	providerSection       = "provider"
	legacyProviderSection = "openai"
	organizationIDKey     = "organization_id"
	secretKeyKey          = "secret_key"
)

// SetupInstructions is shown to the operator after the template has been written
const SetupInstructions = `Please edit it and add your organization ID and secret key.
If you do not yet have an organization ID and secret key, create them in
your OpenAI account settings: https://platform.openai.com/account/api-keys`

// CredentialStore owns the INI file holding the API credentials
type CredentialStore struct {
	path          string
	writeTemplate func(w io.Writer) error
}

// NewCredentialStore creates a credential store backed by the file at path
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path, writeTemplate: writeTemplate}
}

// Path returns the location of the credentials file
func (s *CredentialStore) Path() string {
	return s.path
}

// EnsureConfigExists writes an empty template when the credentials file is
// absent and returns domain.ErrConfigMissing. An existing file is never touched.
func (s *CredentialStore) EnsureConfigExists() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return domain.NewError(domain.KindConfigInvalid, "cannot stat "+s.path, err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return domain.NewError(domain.KindConfigInvalid, "cannot create "+s.path, err)
	}

	err = s.writeTemplate(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A partial template would be reported as invalid on the next start
		os.Remove(s.path)
		return domain.NewError(domain.KindConfigInvalid, "cannot write template to "+s.path, err)
	}

	return domain.ErrConfigMissing
}

// Load makes sure the credentials file exists and returns its credentials
func (s *CredentialStore) Load() (domain.Credentials, error) {
	if err := s.EnsureConfigExists(); err != nil {
		return domain.Credentials{}, err
	}

	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true, InsensitiveKeys: true}, s.path)
	if err != nil {
		return domain.Credentials{}, domain.NewError(domain.KindConfigInvalid, "cannot parse "+s.path, err)
	}

	sec, err := file.GetSection(providerSection)
	if err != nil {
		sec, err = file.GetSection(legacyProviderSection)
		if err != nil {
			return domain.Credentials{}, domain.NewError(domain.KindConfigInvalid,
				fmt.Sprintf("section [%s] not found in %s", providerSection, s.path), nil)
		}
	}

	var values [2]string
	for i, key := range []string{organizationIDKey, secretKeyKey} {
		if !sec.HasKey(key) {
			return domain.Credentials{}, domain.NewError(domain.KindConfigInvalid,
				fmt.Sprintf("key %q not found in section [%s]", key, sec.Name()), nil)
		}
		values[i] = stripQuotes(sec.Key(key).String())
	}

	creds := domain.Credentials{
		OrganizationID: values[0],
		SecretKey:      values[1],
	}
	if err := creds.Validate(); err != nil {
		return domain.Credentials{}, err
	}

	return creds, nil
}

// writeTemplate writes the provider section with empty credential keys
func writeTemplate(w io.Writer) error {
	template := ini.Empty()
	sec, err := template.NewSection(providerSection)
	if err != nil {
		return err
	}
	for _, key := range []string{organizationIDKey, secretKeyKey} {
		if _, err := sec.NewKey(key, ""); err != nil {
			return err
		}
	}

	_, err = template.WriteTo(w)
	return err
}

// stripQuotes removes surrounding double quotes, then surrounding single quotes
func stripQuotes(v string) string {
	return strings.Trim(strings.Trim(strings.TrimSpace(v), `"`), `'`)
}
