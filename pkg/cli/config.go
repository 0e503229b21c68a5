package cli

import (
	"context"
	"os"

	"github.com/fitforge-ai/fitforge/pkg/adapter"
	"github.com/fitforge-ai/fitforge/pkg/agent"
	"github.com/fitforge-ai/fitforge/pkg/agent/research"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/fitforge-ai/fitforge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values shared across commands
type config struct {
	logLevel string

	// Repository (one of sqlite path or firestore project/database)
	sqlitePath string
	project    string
	database   string

	// Gemini
	geminiProject  string
	geminiLocation string

	// Optional raw-response archive
	archiveBucket string

	// Optional custom contraindication rules
	safetyRules string
}

// globalFlags returns common flags used across commands with
// destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("FITFORGE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "sqlite",
			Usage:       "Path to a local SQLite memory store (skips Firestore)",
			Sources:     cli.EnvVars("FITFORGE_SQLITE"),
			Destination: &cfg.sqlitePath,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for Firestore",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket for raw response archives",
			Sources:     cli.EnvVars("FITFORGE_ARCHIVE_BUCKET"),
			Destination: &cfg.archiveBucket,
		},
		&cli.StringFlag{
			Name:        "safety-rules",
			Usage:       "Path to a YAML file overriding contraindication rules",
			Sources:     cli.EnvVars("FITFORGE_SAFETY_RULES"),
			Destination: &cfg.safetyRules,
		},
	}
}

// setupLogger installs the default logger at the configured level.
// Called at the start of every command action, once flags are parsed.
func (cfg *config) setupLogger() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// newRepository creates the memory store backend
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.sqlitePath != "" {
		repo, err := repository.NewSQLite(cfg.sqlitePath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open sqlite repository")
		}
		return repo, nil
	}

	if cfg.project == "" {
		return nil, goerr.New("missing configuration: either --sqlite or --project is required",
			goerr.T(model.ErrTagConfiguration))
	}
	repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore repository")
	}
	return repo, nil
}

// newGemini creates the Gemini adapter
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("missing configuration: gemini-project is required",
			goerr.T(model.ErrTagConfiguration))
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
}

// newMemory wires the repository and embedder into a memory gateway
// for the given agent type
func (cfg *config) newMemory(ctx context.Context, gemini adapter.Gemini, agentType model.AgentType) (*agent.Memory, repository.Repository, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	memory, err := agent.NewMemory(repo, agentType, agent.WithEmbedder(gemini))
	if err != nil {
		repo.Close()
		return nil, nil, err
	}

	return memory, repo, nil
}

// newResearchAgent assembles the research pipeline from flags
func (cfg *config) newResearchAgent(ctx context.Context) (*research.Agent, repository.Repository, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, nil, err
	}

	memory, repo, err := cfg.newMemory(ctx, gemini, model.AgentTypeResearch)
	if err != nil {
		return nil, nil, err
	}

	var opts []research.Option

	if cfg.archiveBucket != "" {
		storage, err := adapter.NewStorage(ctx, cfg.archiveBucket)
		if err != nil {
			repo.Close()
			return nil, nil, goerr.Wrap(err, "failed to create archive storage")
		}
		opts = append(opts, research.WithStorage(storage))
	}

	if cfg.safetyRules != "" {
		f, err := os.Open(cfg.safetyRules)
		if err != nil {
			repo.Close()
			return nil, nil, goerr.Wrap(err, "failed to open safety rules file",
				goerr.V("path", cfg.safetyRules))
		}
		rules, rerr := research.LoadSafetyRules(f)
		f.Close()
		if rerr != nil {
			repo.Close()
			return nil, nil, rerr
		}
		opts = append(opts, research.WithSafetyFilter(research.NewSafetyFilter(rules)))
	}

	agt, err := research.New(adapter.NewGeminiSearch(gemini), memory, opts...)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}

	return agt, repo, nil
}
