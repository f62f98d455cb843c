package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Account is a GitHub token stored under a local account name
type Account struct {
	Name         string    `json:"name"`
	Token        string    `json:"token"`
	Login        string    `json:"login,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific account name
	Retrieve(name string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a specific account name
	Delete(name string) error

	// Exists checks if credentials exist for an account name
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores     []CredentialStore
	activePath string
}

// NewManager creates a new credential manager with appropriate storage backends
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	// system keychain first
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

	return &Manager{
		stores:     stores,
		activePath: filepath.Join(configDir, "active_account"),
	}, nil
}

// NewManagerWithStores creates a Manager over explicit stores. An empty
// activePath disables remembering the active account.
func NewManagerWithStores(activePath string, stores ...CredentialStore) *Manager {
	return &Manager{
		stores:     stores,
		activePath: activePath,
	}
}

// Store saves credentials using the first available store
func (m *Manager) Store(account *Account) error {
	if account.Name == "" {
		return errors.New("account name is required")
	}
	if err := ValidateToken(account.Token); err != nil {
		return err
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(name); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for account: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault returns the active account, then the environment token,
// then the first stored account
func (m *Manager) RetrieveDefault() (*Account, error) {
	if name := m.Active(); name != "" {
		if account, err := m.Retrieve(name); err == nil {
			return account, nil
		}
	}

	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if account, err := envStore.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}

	return nil, ErrCredentialsNotFound
}

// List returns all stored accounts from all stores, sorted by name
func (m *Manager) List() ([]*Account, error) {
	accountMap := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			// keep the most recently modified copy
			if existing, ok := accountMap[account.Name]; !ok || account.LastModified.After(existing.LastModified) {
				accountMap[account.Name] = account
			}
		}
	}

	result := make([]*Account, 0, len(accountMap))
	for _, account := range accountMap {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for account: %s", ErrCredentialsNotFound, name)
	}

	if m.Active() == name {
		_ = m.clearActive()
	}
	return nil
}

// SetActive makes name the account used when none is given
func (m *Manager) SetActive(name string) error {
	if m.activePath == "" {
		return ErrStoreUnavailable
	}
	if _, err := m.Retrieve(name); err != nil {
		return err
	}
	return os.WriteFile(m.activePath, []byte(name+"\n"), 0600)
}

// Active returns the active account name, or "" when none is set
func (m *Manager) Active() string {
	if m.activePath == "" {
		return ""
	}
	content, err := os.ReadFile(m.activePath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}

func (m *Manager) clearActive() error {
	if m.activePath == "" {
		return nil
	}
	if err := os.Remove(m.activePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ValidateToken rejects tokens that cannot be a GitHub token
func ValidateToken(token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidCredentials)
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return fmt.Errorf("%w: token contains whitespace", ErrInvalidCredentials)
	}
	if len(token) < 20 {
		return fmt.Errorf("%w: token is too short", ErrInvalidCredentials)
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
		configDir = filepath.Join(home, "Library", "Application Support", "ghscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "ghscraper")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "ghscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "ghscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeAccount creates a copy of the account with the token masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Name:         account.Name,
		Token:        MaskToken(account.Token),
		Login:        account.Login,
		LastModified: account.LastModified,
	}
}

// MaskToken masks all but the first 4 and last 4 characters of a token
func MaskToken(s string) string {
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
