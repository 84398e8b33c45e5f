package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"biliguard/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Bilibili cookie credentials",
	Long: `Manage stored Bilibili cookies securely.

Cookies are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your cookies or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [label]",
	Short: "Store Bilibili cookies securely",
	Long: `Store Bilibili cookies in the system keychain or an encrypted file.

You will be prompted for:
  - SESSDATA (session cookie)
  - bili_jct (CSRF cookie)
  - buvid3 (optional device cookie, press Enter to skip)

To get these values:
1. Log into bilibili.com in your browser
2. Open Developer Tools (F12)
3. Go to Application/Storage > Cookies > https://www.bilibili.com
4. Copy the SESSDATA, bili_jct and buvid3 values`,
	Example: `  # Store the default cookie set
  biliguard auth login

  # Store a named cookie set
  biliguard auth login backup`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [label]",
	Short: "Remove stored cookies",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored cookie sets",
	Long:  `List all stored cookie sets with sensitive values masked.`,
	RunE:  runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	label := auth.DefaultLabel
	if len(args) > 0 {
		label = args[0]
	}

	sessData, err := promptSecret("SESSDATA: ")
	if err != nil {
		return err
	}
	biliJct, err := promptSecret("bili_jct: ")
	if err != nil {
		return err
	}
	buvid3, err := promptLine("buvid3 (optional): ")
	if err != nil {
		return err
	}

	creds := &auth.Credentials{
		Label:    label,
		SessData: sessData,
		BiliJct:  biliJct,
		Buvid3:   buvid3,
	}
	if err := manager.Store(creds); err != nil {
		return fmt.Errorf("failed to store cookies: %w", err)
	}

	fmt.Printf("Cookies stored as %q\n", label)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	label := auth.DefaultLabel
	if len(args) > 0 {
		label = args[0]
	}

	if err := manager.Delete(label); err != nil {
		return err
	}

	fmt.Printf("Cookies %q removed\n", label)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	sets, err := manager.List()
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		fmt.Println("No stored cookie sets")
		return nil
	}

	for _, creds := range sets {
		masked := auth.Sanitize(creds)
		fmt.Printf("%-12s SESSDATA=%s bili_jct=%s (modified %s)\n",
			masked.Label, masked.SessData, masked.BiliJct,
			masked.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}

// promptSecret reads a value without echoing it to the terminal
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	value, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(value)), nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	value, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(value), nil
}
