package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/masqueradebot/masquerade/internal/dependencies/random"
	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/shuffle"
)

func newShuffleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle ID...",
		Short: "Dry-run the shuffle engine on a list of participant IDs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			participants := make([]model.ParticipantID, 0, len(args))
			for _, arg := range args {
				id, err := model.ParseParticipantID(arg)
				if err != nil {
					return err
				}
				participants = append(participants, id)
			}

			engine := shuffle.New(random.New(), 0, slog.New(slog.NewJSONHandler(io.Discard, nil)))
			assignment, err := engine.Shuffle(cmd.Context(), participants, nil)
			if err != nil {
				return err
			}

			for _, pair := range assignment {
				cmd.Printf("%s plays as %s\n", pair.Player, pair.Avatar)
			}
			cmd.Printf("host: %s\n", assignment.Host())
			return nil
		},
	}
}
