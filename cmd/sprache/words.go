package main

import (
	"github.com/spf13/cobra"
)

func newWordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Vocabulary decks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "decks",
		Short: "List vocabulary decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decks, err := a.client.Words.Decks(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), decks)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "level <level>",
		Short: "List the words of one deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := a.client.Words.ByLevel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), words)
		},
	})
	return cmd
}
