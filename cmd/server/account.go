package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rpggio/actionplan/internal/config"
	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/sqlite"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		v, dirty, err := db.SchemaVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", v, dirty)
		return nil
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Approve, reject and list accounts",
}

var (
	approveRole  string
	listStatus   string
	tokenComment string
)

var accountApproveCmd = &cobra.Command{
	Use:   "approve <handle>",
	Short: "Activate an account with a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := account.ParseRole(approveRole)
		if err != nil {
			return err
		}
		return withAccounts(cmd, func(svc *account.Service, _ *sqlite.DB) error {
			acc, err := svc.Approve(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s approved as %s\n", acc.Handle, acc.Role)
			return nil
		})
	},
}

var accountRejectCmd = &cobra.Command{
	Use:   "reject <handle>",
	Short: "Reject an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccounts(cmd, func(svc *account.Service, _ *sqlite.DB) error {
			acc, err := svc.Reject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s rejected\n", acc.Handle)
			return nil
		})
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var opts account.ListOptions
		if listStatus != "" {
			st, err := account.ParseStatus(listStatus)
			if err != nil {
				return err
			}
			opts.Status = &st
		}
		return withAccounts(cmd, func(svc *account.Service, _ *sqlite.DB) error {
			accounts, err := svc.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "HANDLE\tNAME\tSTATUS\tROLE\tCREATED")
			for _, a := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.Handle, a.DisplayName, a.Status, a.Role, a.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		})
	},
}

var accountTokenCmd = &cobra.Command{
	Use:   "token <handle>",
	Short: "Issue an MCP bearer token for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccounts(cmd, func(svc *account.Service, db *sqlite.DB) error {
			acc, err := svc.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			token, err := sqlite.NewAPIKeyRepository(db).Issue(cmd.Context(), acc.Handle, tokenComment)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		})
	},
}

func init() {
	accountApproveCmd.Flags().StringVar(&approveRole, "role", "", "Role to grant: manager, technician, commercial or other")
	_ = accountApproveCmd.MarkFlagRequired("role")
	accountListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status: pending, active or rejected")
	accountTokenCmd.Flags().StringVar(&tokenComment, "description", "", "Note stored with the token")

	accountCmd.AddCommand(accountApproveCmd, accountRejectCmd, accountListCmd, accountTokenCmd)
}

func withAccounts(cmd *cobra.Command, fn func(*account.Service, *sqlite.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, closeLog := newLogger(cfg)
	defer closeLog()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(account.NewService(sqlite.NewAccountRepository(db), logger), db)
}
