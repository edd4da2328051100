package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"tumbledee/pkg/errors"
)

// DefaultCredentialsFile is the credentials location used when none is configured
const DefaultCredentialsFile = "~/.credentials.json"

// Credentials holds the Tumblr API consumer key
type Credentials struct {
	APIKey string `json:"api_key" toml:"api_key"`
}

// DefaultCredentialsPath returns DefaultCredentialsFile with the home directory expanded
func DefaultCredentialsPath() string {
	return ExpandPath(DefaultCredentialsFile)
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadCredentials reads the API key from path. Files ending in .toml are
// decoded as TOML, everything else as JSON. A missing file, a malformed
// file or an empty key is a config error.
func LoadCredentials(path string) (*Credentials, error) {
	if path == "" {
		path = DefaultCredentialsPath()
	}
	path = ExpandPath(path)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError(fmt.Sprintf("credentials file %s not found", path), err)
		}
		return nil, errors.NewConfigError("failed to open credentials file", err)
	}
	defer f.Close()

	creds := &Credentials{}
	if isTOML(path) {
		err = toml.NewDecoder(f).Decode(creds)
	} else {
		err = json.NewDecoder(f).Decode(creds)
	}
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to parse credentials file %s", path), err)
	}

	creds.APIKey = strings.TrimSpace(creds.APIKey)
	if creds.APIKey == "" {
		return nil, errors.NewConfigError(fmt.Sprintf("no api_key in %s", path), nil)
	}

	return creds, nil
}

// SaveCredentials writes creds to path with owner-only permissions, in the
// format LoadCredentials expects for that path.
func SaveCredentials(path string, creds *Credentials) error {
	if creds == nil || strings.TrimSpace(creds.APIKey) == "" {
		return errors.NewConfigError("api key is required", nil)
	}
	if path == "" {
		path = DefaultCredentialsPath()
	}
	path = ExpandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tempPath := path + ".tmp"
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}

	if isTOML(path) {
		err = toml.NewEncoder(f).Encode(creds)
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(creds)
	}
	closeErr := f.Close()

	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close credentials file: %w", closeErr)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

// MaskKey masks all but the first 4 and last 4 characters of a key
func MaskKey(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
