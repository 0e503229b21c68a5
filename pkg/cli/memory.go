package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/urfave/cli/v3"
)

func memoryCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Inspect stored agent memories",
		Commands: []*cli.Command{
			memoryListCommand(cfg),
			memoryShowCommand(cfg),
		},
	}
}

func memoryListCommand(cfg *config) *cli.Command {
	var (
		userID     string
		agentType  string
		memoryType string
		tags       []string
		limit      int64
	)

	return &cli.Command{
		Name:  "list",
		Usage: "List memories for a user, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "user",
				Aliases:     []string{"u"},
				Required:    true,
				Destination: &userID,
			},
			&cli.StringFlag{
				Name:        "agent",
				Usage:       "Filter by agent type (research, generation, adjustment)",
				Destination: &agentType,
			},
			&cli.StringFlag{
				Name:        "type",
				Usage:       "Filter by memory type (research, plan, feedback)",
				Destination: &memoryType,
			},
			&cli.StringSliceFlag{
				Name:        "tag",
				Usage:       "Filter by tag (repeatable)",
				Destination: &tags,
			},
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Value:       repository.DefaultLimit,
				Destination: &limit,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			q := &repository.MemoryQuery{
				MemoryType: model.MemoryType(memoryType),
				Tags:       tags,
				Limit:      int(limit),
				SortBy:     model.SortByRecency,
			}
			if agentType != "" {
				q.AgentTypes = []model.AgentType{model.AgentType(agentType)}
			}

			records, err := repo.QueryMemories(ctx, userID, q)
			if err != nil {
				return err
			}

			for _, rec := range records {
				fmt.Printf("%s  %s  %s/%s  %v\n",
					rec.ID,
					rec.CreatedAt.Format("2006-01-02 15:04:05"),
					rec.Metadata.AgentType,
					rec.Metadata.MemoryType,
					rec.Metadata.Tags,
				)
			}
			return nil
		},
	}
}

func memoryShowCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a memory record by ID",
		ArgsUsage: "<memory-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			if c.Args().Len() != 1 {
				return fmt.Errorf("exactly one memory ID is required")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			rec, err := repo.GetMemory(ctx, model.MemoryID(c.Args().First()))
			if err != nil {
				return err
			}

			// The embedding is large and not human-readable
			rec.Embedding = nil

			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
