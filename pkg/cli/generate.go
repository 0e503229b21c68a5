package cli

import (
	"context"

	"github.com/fitforge-ai/fitforge/pkg/agent/generation"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/urfave/cli/v3"
)

func generateCommand(cfg *config) *cli.Command {
	var (
		userID       string
		exerciseType string
		fitnessLevel string
		age          int64
		goals        []string
		injuries     []string
	)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a workout plan from stored research",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "user",
				Aliases:     []string{"u"},
				Usage:       "User ID whose research memories seed the plan",
				Required:    true,
				Destination: &userID,
			},
			&cli.StringFlag{
				Name:        "exercise-type",
				Aliases:     []string{"t"},
				Usage:       "Exercise type (strength, cardio, flexibility, general)",
				Value:       string(model.ExerciseTypeGeneral),
				Destination: &exerciseType,
			},
			&cli.StringFlag{
				Name:        "fitness-level",
				Usage:       "Fitness level (beginner, intermediate, advanced)",
				Destination: &fitnessLevel,
			},
			&cli.IntFlag{
				Name:        "age",
				Destination: &age,
			},
			&cli.StringSliceFlag{
				Name:        "goal",
				Usage:       "Training goal (repeatable)",
				Destination: &goals,
			},
			&cli.StringSliceFlag{
				Name:        "injury",
				Usage:       "Injury to keep out of the plan (repeatable)",
				Destination: &injuries,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			memory, repo, err := cfg.newMemory(ctx, gemini, model.AgentTypeGeneration)
			if err != nil {
				return err
			}
			defer repo.Close()

			agt, err := generation.New(gemini, memory)
			if err != nil {
				return err
			}

			req := &model.AgentRequest{
				UserID:       userID,
				ExerciseType: model.ExerciseType(exerciseType),
				Goals:        goals,
				Profile:      buildProfile(fitnessLevel, int(age), goals, injuries),
			}

			result := runWithSpinner(ctx, " generating plan...", func(ctx context.Context) *model.AgentResult {
				return agt.SafeProcess(ctx, req)
			})

			return printResult(result)
		},
	}
}
