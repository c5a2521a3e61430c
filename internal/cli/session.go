package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillback/waystone/internal/session"
)

// SessionOptions holds flags shared by the session subcommands.
type SessionOptions struct {
	*RootOptions
	DB string
}

// SessionRow is one listed session in JSON output.
type SessionRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Game      string `json:"game"`
	Digest    string `json:"rulesetDigest"`
	UpdatedAt string `json:"updatedAt"`
}

// NewSessionCommand creates the session command group.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage saved sessions",
		Long: `Inspect and move saved sessions: list the store, export a session to
a portable compressed file, import one back, or delete it.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "waystone.db", "path to the session database")

	cmd.AddCommand(newSessionListCommand(opts))
	cmd.AddCommand(newSessionExportCommand(opts))
	cmd.AddCommand(newSessionImportCommand(opts))
	cmd.AddCommand(newSessionDeleteCommand(opts))

	return cmd
}

func openStore(opts *SessionOptions) (*session.Store, error) {
	store, err := session.Open(opts.DB)
	if err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("cannot open session store: %v", err))
	}
	return store, nil
}

func newSessionListCommand(opts *SessionOptions) *cobra.Command {
	var game, prefix string
	var limit int

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List saved sessions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), session.ListFilter{
				Game:       game,
				NamePrefix: prefix,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if opts.Format == "json" {
				rows := make([]SessionRow, 0, len(records))
				for _, r := range records {
					rows = append(rows, SessionRow{
						ID:        r.ID,
						Name:      r.Name,
						Game:      r.Game,
						Digest:    r.RuleSetDigest,
						UpdatedAt: r.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
					})
				}
				return formatter.JSON(rows)
			}

			w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tGAME\tUPDATED\tDIGEST")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.12s\n",
					r.Name, r.Game, r.UpdatedAt.Format("2006-01-02 15:04"), r.StateDigest)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "filter by game name")
	cmd.Flags().StringVar(&prefix, "prefix", "", "filter by session name prefix")
	cmd.Flags().IntVar(&limit, "limit", 0, "cap the number of rows (0 = no cap)")

	return cmd
}

func newSessionExportCommand(opts *SessionOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:           "export <name>",
		Short:         "Export a session to a portable file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			record, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}

			path := out
			if path == "" {
				path = args[0] + ".waystone"
			}
			f, err := os.Create(path)
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			defer f.Close()

			if err := session.Export(f, record.State); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", args[0], path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file (defaults to <name>.waystone)")
	return cmd
}

func newSessionImportCommand(opts *SessionOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:           "import <file>",
		Short:         "Import a session from an exported file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			defer f.Close()

			state, err := session.Import(f)
			if err != nil {
				return NewExitError(ExitFailure, err.Error())
			}

			store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			sessionName := name
			if sessionName == "" {
				sessionName = state.Game
			}
			record, err := store.Save(cmd.Context(), sessionName, state)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s as %q (%s)\n", args[0], record.Name, record.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "session name (defaults to the game name)")
	return cmd
}

func newSessionDeleteCommand(opts *SessionOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved session",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
