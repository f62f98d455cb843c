package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ghscraper/pkg/auth"
	"ghscraper/pkg/config"
	"ghscraper/pkg/github"
	"ghscraper/pkg/logger"
	"ghscraper/pkg/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// newCredentialManager opens the credential stores
	newCredentialManager = auth.NewManager

	// stdin is shared by all prompts so buffered input is not lost between them
	stdin = bufio.NewReader(os.Stdin)

	skipVerify bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage GitHub tokens",
	Long: `Manage stored GitHub tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (GHSCRAPER_GITHUB_TOKEN, GITHUB_TOKEN), read only

Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store a GitHub token securely",
	Long: `Store a GitHub personal access token under a local account name.

The token is checked against the GitHub API before it is stored, unless
--no-verify is given. The first stored account becomes the active one.`,
	Example: `  # Interactive login
  ghscraper auth login

  # Login under a specific account name
  ghscraper auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Remove a stored token",
	Long: `Remove a stored GitHub token.

If no account is provided, you will be shown a list of stored accounts
to choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with masked tokens.`,
	RunE:  runList,
}

// switchCmd represents the auth switch command
var switchCmd = &cobra.Command{
	Use:   "switch [account]",
	Short: "Switch the active account",
	Long: `Choose the account whose token 'ghscraper scrape' uses by default.

If no account is provided, you will be shown a list of accounts to choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSwitch,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active account and check its token",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(switchCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().BoolVar(&skipVerify, "no-verify", false, "store the token without checking it against the API")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	out := cmd.OutOrStdout()

	var name string
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	auth.ShowTokenGuide()

	if name == "" {
		fmt.Fprint(out, "Account name (default): ")
		name = strings.TrimSpace(readLine())
		if name == "" {
			name = "default"
		}
	}
	if name == auth.EnvironmentAccount {
		return fmt.Errorf("account name %q is reserved for the environment token", name)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Fprintf(out, "\nAccount '%s' already exists. Replace its token? (y/N): ", name)
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(readLine())), "y") {
			return nil
		}
	}

	var token string
	for {
		fmt.Fprint(out, "\nGitHub token (hidden): ")
		token, err = readPassword()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		if err := auth.ValidateToken(token); err != nil {
			ui.PrintWarning("That doesn't look like a GitHub token", err.Error())
			fmt.Fprint(out, "Try again? (Y/n): ")
			if strings.ToLower(strings.TrimSpace(readLine())) == "n" {
				return err
			}
			continue
		}
		break
	}

	account := &auth.Account{
		Name:         name,
		Token:        token,
		LastModified: time.Now(),
	}

	if !skipVerify {
		fmt.Fprintln(out, "\nChecking token with GitHub...")
		login, err := verifyToken(cmd.Context(), token)
		if err != nil {
			return fmt.Errorf("token check failed, use --no-verify to store it anyway: %w", err)
		}
		account.Login = login
		ui.PrintInfo("Authenticated as", login)
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	if manager.Active() == "" {
		if err := manager.SetActive(name); err != nil {
			return fmt.Errorf("failed to set active account: %w", err)
		}
		fmt.Fprintf(out, "Set '%s' as the active account\n", name)
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", name))
	fmt.Fprintln(out, "\nStart collecting with:")
	fmt.Fprintln(out, "  $ ghscraper scrape <location>")
	fmt.Fprintln(out, "\nOr with this account explicitly:")
	fmt.Fprintf(out, "  $ ghscraper scrape <location> --account %s\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	out := cmd.OutOrStdout()

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		accounts, err := storedAccounts(manager)
		if err != nil {
			return err
		}

		switch len(accounts) {
		case 0:
			ui.PrintWarning("No stored accounts found")
			return nil
		case 1:
			fmt.Fprintf(out, "Remove account '%s'? (y/N): ", accounts[0].Name)
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(readLine())), "y") {
				return nil
			}
			name = accounts[0].Name
		default:
			account, err := chooseAccount(out, "Select account to remove:", accounts)
			if err != nil || account == nil {
				return err
			}
			name = account.Name
		}
	}

	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	ui.PrintSuccess("Account removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'ghscraper auth login' to add an account")
		return nil
	}

	active := manager.Active()
	rows := make([][]string, 0, len(accounts))
	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		marker := ""
		if sanitized.Name == active {
			marker = "*"
		}
		modified := ""
		if !sanitized.LastModified.IsZero() {
			modified = sanitized.LastModified.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{marker, sanitized.Name, sanitized.Login, sanitized.Token, modified})
	}

	ui.PrintHighlight("Stored Accounts")
	ui.PrintTable([]string{"", "Account", "Login", "Token", "Last Modified"}, rows)
	return nil
}

func runSwitch(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		accounts, err := storedAccounts(manager)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			ui.PrintWarning("No stored accounts found")
			return nil
		}
		account, err := chooseAccount(cmd.OutOrStdout(), "Select account:", accounts)
		if err != nil || account == nil {
			return err
		}
		name = account.Name
	}

	if err := manager.SetActive(name); err != nil {
		return fmt.Errorf("failed to switch account: %w", err)
	}
	ui.PrintSuccess("Active account: " + name)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	account, err := manager.RetrieveDefault()
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		ui.PrintWarning("Not logged in", "requests will be anonymous")
		return nil
	}
	if err != nil {
		return err
	}

	ui.PrintInfo("Account", account.Name)
	ui.PrintInfo("Token", auth.MaskToken(account.Token))

	client, err := statusClient(account.Token)
	if err != nil {
		return err
	}
	user, err := client.GetAuthenticatedUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("token check failed: %w", err)
	}
	ui.PrintInfo("Authenticated as", user.Login)

	if rl := client.RateLimit(); rl.Limit > 0 {
		ui.PrintInfo("Rate limit", fmt.Sprintf("%d/%d remaining, resets %s", rl.Remaining, rl.Limit, rl.Reset.Format("15:04:05")))
	}
	return nil
}

// storedAccounts lists the accounts that can be removed or switched to,
// leaving out the read-only environment token
func storedAccounts(manager *auth.Manager) ([]*auth.Account, error) {
	accounts, err := manager.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	stored := accounts[:0]
	for _, a := range accounts {
		if a.Name != auth.EnvironmentAccount {
			stored = append(stored, a)
		}
	}
	return stored, nil
}

// chooseAccount prints a numbered menu and returns the picked account, or
// nil when the user cancels
func chooseAccount(out io.Writer, title string, accounts []*auth.Account) (*auth.Account, error) {
	fmt.Fprintln(out, title)
	for i, account := range accounts {
		fmt.Fprintf(out, "  %d. %s\n", i+1, account.Name)
	}
	fmt.Fprintf(out, "  0. Cancel\n\n")
	fmt.Fprint(out, "Choice: ")

	var choice int
	fmt.Sscanf(strings.TrimSpace(readLine()), "%d", &choice)

	if choice == 0 {
		return nil, nil
	}
	if choice < 0 || choice > len(accounts) {
		return nil, errors.New("invalid choice")
	}
	return accounts[choice-1], nil
}

// statusClient creates a GitHub client for token checks. The client uses
// the configured base URL but keeps its logs quiet.
func statusClient(token string) (*github.Client, error) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		cfg = config.DefaultConfig()
	}
	cfg.GitHub.Token = token
	cfg.Retry.MaxAttempts = 1
	return github.NewClient(cfg, logger.NewNopLogger())
}

// verifyToken returns the login a token belongs to
var verifyToken = func(ctx context.Context, token string) (string, error) {
	client, err := statusClient(token)
	if err != nil {
		return "", err
	}
	user, err := client.GetAuthenticatedUser(ctx)
	if err != nil {
		return "", err
	}
	return user.Login, nil
}

func readLine() string {
	line, _ := stdin.ReadString('\n')
	return line
}

// readPassword reads a secret from stdin without echoing
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := stdin.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
