package main

import (
	"github.com/spf13/cobra"

	"github.com/windfall/sprache/internal/apiclient"
)

func newPodcastsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "podcasts",
		Short: "Generated listening podcasts",
	}
	cmd.AddCommand(newPodcastListCmd(a))
	cmd.AddCommand(newPodcastGetCmd(a))
	cmd.AddCommand(newPodcastCreateCmd(a))
	cmd.AddCommand(newPodcastDeleteCmd(a))
	cmd.AddCommand(newPodcastOptionsCmd(a, "contexts", "List podcast contexts", a.podcastContexts))
	cmd.AddCommand(newPodcastOptionsCmd(a, "levels", "List podcast levels", a.podcastLevels))
	cmd.AddCommand(newPodcastOptionsCmd(a, "voices", "List narration voices", a.podcastVoices))
	return cmd
}

func newPodcastListCmd(a *app) *cobra.Command {
	var (
		filter apiclient.PodcastFilter
		level  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List podcasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := apiclient.ParseLevel(level)
			if err != nil {
				return err
			}
			filter.Level = l

			items, err := a.client.Podcasts.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "CEFR level")
	cmd.Flags().StringVar(&filter.Context, "context", "", "podcast context")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&filter.Skip, "skip", 0, "podcasts to skip")
	return cmd
}

func newPodcastGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one podcast with transcript and quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.Podcasts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), p)
		},
	}
}

func newPodcastCreateCmd(a *app) *cobra.Command {
	var (
		in    apiclient.PodcastCreate
		level string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a podcast around a word list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := apiclient.ParseLevel(level)
			if err != nil {
				return err
			}
			in.CEFRLevel = l

			p, err := a.client.Podcasts.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringSliceVar(&in.Words, "words", nil, "words to feature, comma separated")
	cmd.Flags().StringVar(&level, "level", "", "CEFR level")
	cmd.Flags().StringVar(&in.Context, "context", "", "podcast context")
	cmd.Flags().StringSliceVar(&in.VoiceIDs, "voices", nil, "voice ids, comma separated")
	return cmd
}

func newPodcastDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a podcast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.Podcasts.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res)
		},
	}
}

func newPodcastOptionsCmd(a *app, use, short string, fetch func(*cobra.Command) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := fetch(cmd)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), v)
		},
	}
}

func (a *app) podcastContexts(cmd *cobra.Command) (any, error) {
	return a.client.Podcasts.Contexts(cmd.Context())
}

func (a *app) podcastLevels(cmd *cobra.Command) (any, error) {
	return a.client.Podcasts.Levels(cmd.Context())
}

func (a *app) podcastVoices(cmd *cobra.Command) (any, error) {
	return a.client.Podcasts.Voices(cmd.Context())
}
