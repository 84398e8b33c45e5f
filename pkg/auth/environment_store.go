package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only; the daemon uses it so containerized deployments can skip
// the interactive login entirely.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets the cookie set from environment variables
func (e *EnvironmentStore) Retrieve(label string) (*Credentials, error) {
	sessData := os.Getenv("BILIGUARD_SESSDATA")
	biliJct := os.Getenv("BILIGUARD_BILI_JCT")
	buvid3 := os.Getenv("BILIGUARD_BUVID3")

	if sessData == "" || biliJct == "" {
		return nil, ErrCredentialsNotFound
	}

	if label == "" {
		label = DefaultLabel
	}

	return &Credentials{
		Label:        label,
		SessData:     sessData,
		BiliJct:      biliJct,
		Buvid3:       buvid3,
		LastModified: time.Now(),
	}, nil
}

// List returns a single cookie set if environment variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials are set
func (e *EnvironmentStore) Exists(label string) bool {
	return os.Getenv("BILIGUARD_SESSDATA") != "" && os.Getenv("BILIGUARD_BILI_JCT") != ""
}
