package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"CasePublisher/internal/app"
	"CasePublisher/internal/config"
	"CasePublisher/internal/domain"
	"CasePublisher/internal/infrastructure/terminal"
	"CasePublisher/internal/usecase"
)

func rootCmd(cfg config.Config, logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "casepublisher",
		Short:         "Turn case and post drafts into published documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	withApp := func(run func(cmd *cobra.Command, a *app.Application, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a, args)
		}
	}

	root.AddCommand(publishCmd(withApp), draftsCmd(withApp), vocabCmd(withApp), libraryCmd(withApp))
	return root
}

type appRunner func(run func(cmd *cobra.Command, a *app.Application, args []string) error) func(*cobra.Command, []string) error

func publishCmd(withApp appRunner) *cobra.Command {
	var (
		draftPath string
		assumeYes bool
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish one pending draft",
		Long: `Publish scans the selected draft for resource URLs, extracts metadata, uploads new
images, videos and documents (reusing resource library entries), writes the final document
and moves the draft into the archive directory.

Examples:
  # Choose a draft interactively
  casepublisher publish

  # Publish a specific draft, answering yes to every checkpoint
  casepublisher publish --draft drafts/cases/john-doe.md --yes`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.Application, _ []string) error {
			prompter := terminal.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), assumeYes)
			report, err := a.Publish(cmd.Context(), usecase.PublishOptions{DraftPath: draftPath, Overwrite: overwrite}, prompter)
			if err != nil {
				return err
			}
			terminal.RenderReport(cmd.OutOrStdout(), report)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&draftPath, "draft", "d", "", "Draft file to publish (prompted when empty)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every confirmation")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing published document")
	return cmd
}

func draftsCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "drafts",
		Short: "List pending drafts",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.Application, _ []string) error {
			drafts, err := a.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			terminal.RenderDrafts(cmd.OutOrStdout(), drafts)
			return nil
		}),
	}
}

func vocabCmd(withApp appRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Inspect and maintain the canonical vocabulary",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "rebuild",
			Short: "Recompute derived lists from the published documents",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.Application, _ []string) error {
				report, err := a.Vocabulary().Rebuild(cmd.Context())
				if err != nil {
					return err
				}
				names := make([]string, 0, len(report))
				for name := range report {
					names = append(names, name)
				}
				sort.Strings(names)

				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"List", "Canonical values"})
				for _, name := range names {
					t.AppendRow(table.Row{name, report[name]})
				}
				t.Render()
				return nil
			}),
		},
		&cobra.Command{
			Use:   "add LIST VALUE",
			Short: "Add a canonical value to a derived list",
			Args:  cobra.ExactArgs(2),
			RunE: withApp(func(cmd *cobra.Command, a *app.Application, args []string) error {
				return a.Vocabulary().AddCanonical(cmd.Context(), args[1], args[0])
			}),
		},
		&cobra.Command{
			Use:   "alias LIST ALIAS CANONICAL",
			Short: "Register another spelling of a canonical value",
			Args:  cobra.ExactArgs(3),
			RunE: withApp(func(cmd *cobra.Command, a *app.Application, args []string) error {
				return a.Vocabulary().AddAlias(cmd.Context(), args[1], args[2], args[0])
			}),
		},
		&cobra.Command{
			Use:   "normalize LIST VALUE",
			Short: "Show the canonical form of a value",
			Args:  cobra.ExactArgs(2),
			RunE: withApp(func(cmd *cobra.Command, a *app.Application, args []string) error {
				value := a.Vocabulary().Normalize(cmd.Context(), args[1], args[0])
				status := "canonical"
				if !a.Vocabulary().IsCanonical(cmd.Context(), value, args[0]) {
					status = "unknown"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", value, status)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "show LIST",
			Short: "Print the canonical values of a list",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app.Application, args []string) error {
				for _, v := range a.Vocabulary().Values(cmd.Context(), args[0]) {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				}
				return nil
			}),
		},
	)
	return cmd
}

func libraryCmd(withApp appRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect the resource library",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "find URL",
			Short: "Look up an entry by its exact source URL",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app.Application, args []string) error {
				entry, ok, err := a.Library().FindBySourceURL(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s: %w", args[0], domain.ErrNotFound)
				}
				terminal.RenderLibrary(cmd.OutOrStdout(), []domain.LibraryEntry{entry})
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every library entry",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.Application, _ []string) error {
				entries, err := a.Library().List(cmd.Context())
				if err != nil {
					return err
				}
				terminal.RenderLibrary(cmd.OutOrStdout(), entries)
				return nil
			}),
		},
	)
	return cmd
}
