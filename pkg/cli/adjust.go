package cli

import (
	"context"

	"github.com/fitforge-ai/fitforge/pkg/agent/adjustment"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/urfave/cli/v3"
)

func adjustCommand(cfg *config) *cli.Command {
	var (
		userID   string
		feedback string
		injuries []string
	)

	return &cli.Command{
		Name:  "adjust",
		Usage: "Revise the latest workout plan from user feedback",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "user",
				Aliases:     []string{"u"},
				Usage:       "User ID whose latest plan is revised",
				Required:    true,
				Destination: &userID,
			},
			&cli.StringFlag{
				Name:        "feedback",
				Aliases:     []string{"f"},
				Usage:       "What to change about the current plan",
				Required:    true,
				Destination: &feedback,
			},
			&cli.StringSliceFlag{
				Name:        "injury",
				Usage:       "New injury to work around (repeatable)",
				Destination: &injuries,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			memory, repo, err := cfg.newMemory(ctx, gemini, model.AgentTypeAdjustment)
			if err != nil {
				return err
			}
			defer repo.Close()

			agt, err := adjustment.New(gemini, memory)
			if err != nil {
				return err
			}

			req := &model.AgentRequest{
				UserID:   userID,
				Feedback: feedback,
				Profile:  buildProfile("", 0, nil, injuries),
			}

			result := runWithSpinner(ctx, " adjusting plan...", func(ctx context.Context) *model.AgentResult {
				return agt.SafeProcess(ctx, req)
			})

			return printResult(result)
		},
	}
}
