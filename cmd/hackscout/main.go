// Command hackscout runs the hackathon project research pipeline:
// researching known projects, discovering success stories on the open
// web, and screening projects against an investor thesis.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hackscout/hackscout/internal/config"
	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/memory"
	"github.com/hackscout/hackscout/internal/research"
	"github.com/hackscout/hackscout/internal/search"
	"github.com/hackscout/hackscout/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app wires the pipeline from configuration.
type app struct {
	logger       *zap.Logger
	store        store.ProjectStore
	memory       *memory.QueryMemory
	patternStore memory.Store
	orchestrator *research.Orchestrator
	discoverer   *research.Discoverer
	matcher      *research.MatchAnalyzer
	runner       *research.Runner
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	var completions llm.Gateway
	var embedder memory.Embedder
	switch cfg.LLMProvider {
	case "gemini":
		gw, err := llm.NewGeminiGateway(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini gateway: %w", err)
		}
		completions = gw
		emb, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		embedder = emb
	case "openai":
		completions = llm.NewOpenAIGateway(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, nil, logger)
	}

	var projects store.ProjectStore
	var patterns memory.Store
	switch cfg.DBType {
	case "postgres":
		ps, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open project store: %w", err)
		}
		projects = ps
		pp, err := memory.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open pattern store: %w", err)
		}
		patterns = pp
	case "sqlite":
		ss, err := store.NewSQLiteStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open project store: %w", err)
		}
		if err := ss.InitSchema(ctx); err != nil {
			return nil, err
		}
		projects = ss
		sp, err := memory.NewSQLiteStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open pattern store: %w", err)
		}
		if err := sp.InitSchema(ctx); err != nil {
			return nil, err
		}
		patterns = sp
	}

	// The persistent pattern store needs embeddings; without an embedder
	// the query memory runs in-process only.
	if embedder == nil && patterns != nil {
		patterns.Close()
		patterns = nil
	}
	mem := memory.NewQueryMemory(patterns, embedder, logger)

	searcher := search.NewExaClient(cfg.ExaAPIKey, cfg.ExaBaseURL, logger)
	planner := research.NewPlanner(completions, mem, logger)
	loop := research.NewEvaluationLoop(searcher, completions, logger)
	analyzer := research.NewAnalyzer(completions, logger)
	orchestrator := research.NewOrchestrator(planner, loop, analyzer, projects, mem, completions, logger)

	return &app{
		logger:       logger,
		store:        projects,
		memory:       mem,
		patternStore: patterns,
		orchestrator: orchestrator,
		discoverer:   research.NewDiscoverer(searcher, completions, analyzer, projects, logger),
		matcher:      research.NewMatchAnalyzer(completions, logger),
		runner:       research.NewRunner(projects, orchestrator, analyzer, searcher, completions, logger),
	}, nil
}

func (a *app) Close() {
	if a.patternStore != nil {
		a.patternStore.Close()
	}
	a.store.Close()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "hackscout",
		Short:         "Research the post-hackathon trajectory of hackathon projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	setup := func(ctx context.Context) (*app, error) {
		logger, err := buildLogger(verbose)
		if err != nil {
			return nil, err
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return newApp(ctx, cfg, logger)
	}

	root.AddCommand(newResearchCmd(setup))
	root.AddCommand(newResearchAllCmd(setup))
	root.AddCommand(newDiscoverCmd(setup))
	root.AddCommand(newMatchCmd(setup))
	return root
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type setupFunc func(ctx context.Context) (*app, error)

func newResearchCmd(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "research <project-id>",
		Short: "Run the research pipeline for one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			project, err := a.store.FindByID(ctx, args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("project %s not found", args[0])
				}
				return err
			}

			// Pipeline failures are logged, not surfaced: the outcome is
			// observable through the persisted research fields.
			analysis, err := a.orchestrator.ResearchProject(ctx, project)
			if err != nil {
				a.logger.Error("research run failed", zap.String("id", project.ID), zap.Error(err))
				return nil
			}
			if analysis == nil {
				fmt.Printf("No information found for %s\n", project.Name)
				return nil
			}
			fmt.Printf("Researched %s: overall score %d\n", project.Name, analysis.Scores.Overall)
			return nil
		},
	}
}

func newResearchAllCmd(setup setupFunc) *cobra.Command {
	var limit int
	var successStories bool

	cmd := &cobra.Command{
		Use:   "research-all",
		Short: "Research all unresearched projects, or re-research success stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if successStories {
				return a.runner.ResearchSuccessStories(ctx)
			}
			return a.runner.ResearchAll(ctx, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum projects to research")
	cmd.Flags().BoolVar(&successStories, "success-stories", false, "deep re-research funded/startup projects")
	return cmd
}

func newDiscoverCmd(setup setupFunc) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover hackathon success stories on the open web",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			processed, err := a.discoverer.Discover(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Printf("Processed %d candidates\n", processed)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", research.DefaultDiscoveryLimit, "maximum candidates to process")
	return cmd
}

func newMatchCmd(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "match <project-id>",
		Short: "Screen a project against the investor thesis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			project, err := a.store.FindByID(ctx, args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("project %s not found", args[0])
				}
				return err
			}

			report := a.matcher.AnalyzeMatch(ctx, project, research.DefaultInvestor)
			fmt.Printf("Match score: %d/100 (%s)\n\n%s\n", report.MatchScore, report.Recommendation, report.OverallAssessment)
			for _, s := range report.Strengths {
				fmt.Printf("+ %s: %s\n", s.Title, s.Description)
			}
			for _, c := range report.Concerns {
				fmt.Printf("- %s: %s\n", c.Title, c.Description)
			}
			if len(report.NextSteps) > 0 {
				fmt.Println("\nNext steps:")
				for _, step := range report.NextSteps {
					fmt.Printf("  %s\n", step)
				}
			}
			return nil
		},
	}
}
