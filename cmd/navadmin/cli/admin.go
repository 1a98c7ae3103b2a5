package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Create, list and repair the accounts allowed into the admin panel.",
	}

	cmd.AddCommand(newAdminCreateCmd(opts))
	cmd.AddCommand(newAdminSetPasswordCmd(opts))
	cmd.AddCommand(newAdminListCmd(opts))

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  navadmin admin create --username awan --password 'long secret'
  navadmin admin create --username awan  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptPassword(cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			e, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			user, err := e.auth.CreateAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin user %q (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// ---------- admin set-password ----------

func newAdminSetPasswordCmd(opts *rootOptions) *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Replace an admin's password",
		Long: `Stores a fresh bcrypt hash for the admin. Use this to recover a locked out
account or to repair a password column that does not hold a bcrypt hash.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptPassword(cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			e, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := e.auth.SetPassword(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %q\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// ---------- admin list ----------

func newAdminListCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			users, err := e.auth.ListAdmins(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(users)
			}

			if len(users) == 0 {
				fmt.Fprintln(out, "No admin users configured. Use 'navadmin admin create' to create one.")
				return nil
			}

			fmt.Fprintf(out, "%-6s %-30s %-20s\n", "ID", "USERNAME", "CREATED")
			fmt.Fprintf(out, "%-6s %-30s %-20s\n", "--", "--------", "-------")
			for _, u := range users {
				fmt.Fprintf(out, "%-6d %-30s %-20s\n", u.ID, u.Username, u.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func promptPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--password is required when stdin is not a terminal")
	}

	fmt.Fprint(out, "Password: ")
	pwBytes, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	confirmBytes, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}
