package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Credentials is one stored Bilibili cookie set. Label distinguishes multiple
// stored sets; the daemon normally uses "default".
type Credentials struct {
	Label        string    `json:"label"`
	SessData     string    `json:"sessdata"`
	BiliJct      string    `json:"bili_jct"`
	Buvid3       string    `json:"buvid3,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// DefaultLabel is the credential set the daemon loads when none is named
const DefaultLabel = "default"

// CredentialStore is the interface for storing and retrieving cookie sets
type CredentialStore interface {
	// Store saves a cookie set under its label
	Store(creds *Credentials) error

	// Retrieve gets the cookie set with the given label
	Retrieve(label string) (*Credentials, error)

	// List returns all stored cookie sets
	List() ([]*Credentials, error)

	// Delete removes the cookie set with the given label
	Delete(label string) error

	// Exists checks if a cookie set exists for a label
	Exists(label string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager backed by the system keychain when
// available, an encrypted file, and environment variables as a read-only
// last resort.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a cookie set using the first available store
func (m *Manager) Store(creds *Credentials) error {
	if creds.Label == "" {
		creds.Label = DefaultLabel
	}
	if creds.SessData == "" {
		return errors.New("SESSDATA cookie is required")
	}
	if creds.BiliJct == "" {
		return errors.New("bili_jct cookie is required")
	}

	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(creds); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the cookie set from the first store that has it
func (m *Manager) Retrieve(label string) (*Credentials, error) {
	for _, store := range m.stores {
		if creds, err := store.Retrieve(label); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("credentials not found for label: %s", label)
}

// RetrieveDefault gets the default cookie set, falling back to environment
// variables and then to the first stored set
func (m *Manager) RetrieveDefault() (*Credentials, error) {
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if creds, err := envStore.Retrieve(""); err == nil && creds != nil {
			return creds, nil
		}
	}

	if creds, err := m.Retrieve(DefaultLabel); err == nil {
		return creds, nil
	}

	sets, err := m.List()
	if err == nil && len(sets) > 0 {
		return sets[0], nil
	}

	return nil, errors.New("no credentials found")
}

// List returns all stored cookie sets across all stores
func (m *Manager) List() ([]*Credentials, error) {
	byLabel := make(map[string]*Credentials)

	for _, store := range m.stores {
		sets, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range sets {
			if existing, ok := byLabel[creds.Label]; !ok || creds.LastModified.After(existing.LastModified) {
				byLabel[creds.Label] = creds
			}
		}
	}

	var result []*Credentials
	for _, creds := range byLabel {
		result = append(result, creds)
	}

	return result, nil
}

// Delete removes a cookie set from all stores
func (m *Manager) Delete(label string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(label); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("credentials not found for label: %s", label)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "biliguard")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "biliguard")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "biliguard")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "biliguard")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize creates a copy of the cookie set with sensitive values masked
func Sanitize(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}

	return &Credentials{
		Label:        creds.Label,
		SessData:     maskString(creds.SessData),
		BiliJct:      maskString(creds.BiliJct),
		Buvid3:       creds.Buvid3,
		LastModified: creds.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
