package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/siherrmann/quoter/core/chat"
	"github.com/spf13/cobra"
)

var chatUser int64

func init() {
	chatCmd.Flags().Int64Var(&chatUser, "user", 1, "User id favorites are kept for.")
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat [--user <id>]",
	Short: "Talks to the author directory like the chat bot does.",
	Long: "Talks to the author directory like the chat bot does.\n" +
		"Lines starting with ! are sent as button payloads, e.g. !add_fav_Jane Austen.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQuoter()
		if err != nil {
			return err
		}
		defer q.Close()

		dispatcher, err := q.NewDispatcher(nil)
		if err != nil {
			return err
		}

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		ctx := cmd.Context()
		printReply(rl.Stdout(), dispatcher.HandleText(ctx, chatUser, chat.CommandStart))
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			} else if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}

			var reply chat.Reply
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "!"); ok {
				reply = dispatcher.HandleAction(ctx, chatUser, data)
			} else {
				reply = dispatcher.HandleText(ctx, chatUser, line)
			}
			printReply(rl.Stdout(), reply)
		}
	},
}

func printReply(out io.Writer, reply chat.Reply) {
	fmt.Fprintln(out, reply.Text)
	for _, action := range reply.Actions {
		fmt.Fprintf(out, "  [%s] !%s\n", action.Label, action.Data)
	}
	fmt.Fprintln(out)
}
