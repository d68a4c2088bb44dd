package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "masquerade",
		Short: "Discord bot that secretly shuffles group members into each other's roles",
		Long: `masquerade is a Discord bot for the "play as someone else" party game.

On a "!shuffle @a @b @c" message it builds a secret cyclic assignment where
everyone plays as exactly one other mentioned member, DMs each person their
role, and relays the designated host's private messages back to the channel.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newShuffleCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
