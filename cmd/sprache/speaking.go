package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/windfall/sprache/internal/apiclient"
	"github.com/windfall/sprache/internal/logger"
	"github.com/windfall/sprache/internal/practice"
	"github.com/windfall/sprache/internal/tui"
)

// filterFlags binds --theme and --level for commands that select a prompt.
type filterFlags struct {
	theme string
	level string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.theme, "theme", "", "question theme")
	cmd.Flags().StringVar(&f.level, "level", "", "CEFR level (A1..C2)")
}

func (f *filterFlags) filter() (apiclient.PracticeFilter, error) {
	level, err := apiclient.ParseLevel(f.level)
	if err != nil {
		return apiclient.PracticeFilter{}, err
	}
	return apiclient.PracticeFilter{Theme: f.theme, Level: level}, nil
}

func newSpeakingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speaking",
		Short: "Speaking questions, analysis and history",
	}
	cmd.AddCommand(newPracticeSessionCmd(a))
	cmd.AddCommand(newThemesCmd(a))
	cmd.AddCommand(newQuestionLevelsCmd(a))
	cmd.AddCommand(newRandomQuestionCmd(a))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newSessionCmd(a))
	return cmd
}

func newPracticeSessionCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "practice-session",
		Short: "Fetch a practice prompt with target words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := ff.filter()
			if err != nil {
				return err
			}
			ps, err := a.client.Speaking.PracticeSession(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), ps)
		},
	}
	ff.bind(cmd)
	return cmd
}

func newThemesCmd(a *app) *cobra.Command {
	var level string
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List question themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := apiclient.ParseLevel(level)
			if err != nil {
				return err
			}
			themes, err := a.client.Speaking.Themes(cmd.Context(), l)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), themes)
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "only themes with questions at this CEFR level")
	return cmd
}

func newQuestionLevelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List levels covered by the question bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			levels, err := a.client.Speaking.Levels(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), levels)
		},
	}
}

func newRandomQuestionCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Fetch one random question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := ff.filter()
			if err != nil {
				return err
			}
			q, err := a.client.Speaking.RandomQuestion(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), q)
		},
	}
	ff.bind(cmd)
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		question string
		words    []string
	)
	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Submit a recorded answer for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read recording: %w", err)
			}

			sub := apiclient.Submission{
				Audio:        apiclient.Audio{Data: data, MIMEType: practice.AudioMIMEType(args[0])},
				QuestionText: question,
			}
			for _, w := range words {
				sub.TargetWords = append(sub.TargetWords, apiclient.TargetWord{Word: w})
			}

			res, err := a.client.Speaking.SubmitRecording(cmd.Context(), sub)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&question, "question", "", "question the recording answers")
	cmd.Flags().StringSliceVar(&words, "words", nil, "target words, comma separated")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var page apiclient.Page
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past practice sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.client.Speaking.History(cmd.Context(), page)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), h)
		},
	}
	cmd.Flags().IntVar(&page.Skip, "skip", 0, "sessions to skip")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "page size (20 when 0)")
	return cmd
}

func newSessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "session <id>",
		Short: "Show one past session with its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.Speaking.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), s)
		},
	}
}

func newPracticeCmd(a *app) *cobra.Command {
	var (
		ff    filterFlags
		audio string
	)
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Interactive speaking practice",
		Long: "Interactive speaking practice. The answer is taken from --audio, " +
			"recorded beforehand with any tool while the countdown runs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := ff.filter()
			if err != nil {
				return err
			}

			m := practice.New(
				practice.NewFileRecorder(audio),
				a.client.Speaking,
				practice.WithPromptSource(a.client.Speaking),
				practice.WithMaxDuration(a.cfg.PracticeMaxDuration),
				practice.WithTick(a.cfg.PracticeTick),
				practice.WithLogger(logger.Component(a.log, "practice")),
			)
			defer m.Close()

			return tui.Run(cmd.Context(), m, filter)
		},
	}
	ff.bind(cmd)
	cmd.Flags().StringVar(&audio, "audio", "", "audio file submitted as the answer")
	_ = cmd.MarkFlagRequired("audio")
	return cmd
}
