package commands

import (
	"fmt"
	"strings"

	"github.com/siherrmann/quoter/helper"
	"github.com/spf13/cobra"
)

func init() {
	authorsCmd.AddCommand(authorsListCmd)
	authorsCmd.AddCommand(authorsSearchCmd)
	authorsCmd.AddCommand(authorsShowCmd)
	rootCmd.AddCommand(authorsCmd)
}

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "Looks up stored authors.",
}

var authorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists all author names in alphabetical order.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQuoter()
		if err != nil {
			return err
		}
		defer q.Close()

		names, ok := q.Query.ListAll(cmd.Context())
		if !ok {
			return helper.NewError("list authors", helper.ErrStoreUnavailable)
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var authorsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Lists authors whose name contains the query, ignoring case.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQuoter()
		if err != nil {
			return err
		}
		defer q.Close()

		for _, name := range q.Query.Search(cmd.Context(), strings.Join(args, " ")) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var authorsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Shows birth, bio and one quote of an author.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQuoter()
		if err != nil {
			return err
		}
		defer q.Close()

		name := strings.Join(args, " ")
		detail, ok := q.Query.Detail(cmd.Context(), name)
		if !ok {
			return helper.NewError("show author", fmt.Errorf("%w: %s", helper.ErrNotFound, name))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\nborn:  %s\nbio:   %s\nquote: %s\n", detail.Name, detail.Birth, detail.Bio, detail.Quote)
		return nil
	},
}
