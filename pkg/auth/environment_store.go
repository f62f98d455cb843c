package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore, in priority order
var tokenEnvVars = []string{"GHSCRAPER_GITHUB_TOKEN", "GITHUB_TOKEN"}

// EnvironmentAccount is the account name reported for an environment token
const EnvironmentAccount = "env"

// EnvironmentStore is a read-only CredentialStore over the token
// environment variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token as the "env" account. An empty
// name also selects it.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	if name != "" && name != EnvironmentAccount {
		return nil, ErrCredentialsNotFound
	}

	token := environmentToken()
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:         EnvironmentAccount,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if a token variable is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment token is set
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}

func environmentToken() string {
	for _, key := range tokenEnvVars {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
