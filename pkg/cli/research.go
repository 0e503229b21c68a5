package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/urfave/cli/v3"
)

func researchCommand(cfg *config) *cli.Command {
	var (
		query        string
		userID       string
		exerciseType string
		useCache     bool
		fitnessLevel string
		age          int64
		goals        []string
		injuries     []string
	)

	return &cli.Command{
		Name:  "research",
		Usage: "Research safe, source-backed exercises",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "query",
				Aliases:     []string{"q"},
				Usage:       "What to research (defaults per exercise type)",
				Destination: &query,
			},
			&cli.StringFlag{
				Name:        "user",
				Aliases:     []string{"u"},
				Usage:       "User ID for memory persistence",
				Destination: &userID,
			},
			&cli.StringFlag{
				Name:        "exercise-type",
				Aliases:     []string{"t"},
				Usage:       "Exercise type (strength, cardio, flexibility, general)",
				Value:       string(model.ExerciseTypeGeneral),
				Destination: &exerciseType,
			},
			&cli.BoolFlag{
				Name:        "use-cache",
				Usage:       "Return the most recent stored research instead of searching",
				Destination: &useCache,
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
				Usage:       "Injury type to filter contraindicated exercises (repeatable)",
				Destination: &injuries,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			agt, repo, err := cfg.newResearchAgent(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			req := &model.AgentRequest{
				Query:        query,
				UserID:       userID,
				ExerciseType: model.ExerciseType(exerciseType),
				Goals:        goals,
				UseCache:     useCache,
				Profile:      buildProfile(fitnessLevel, int(age), goals, injuries),
			}

			result := runWithSpinner(ctx, " researching...", func(ctx context.Context) *model.AgentResult {
				return agt.SafeProcess(ctx, req)
			})

			return printResult(result)
		},
	}
}

func buildProfile(fitnessLevel string, age int, goals, injuries []string) *model.UserProfile {
	if fitnessLevel == "" && age == 0 && len(goals) == 0 && len(injuries) == 0 {
		return nil
	}

	profile := &model.UserProfile{
		FitnessLevel: model.FitnessLevel(fitnessLevel),
		Age:          age,
		Goals:        goals,
	}
	for _, injury := range injuries {
		profile.Injuries = append(profile.Injuries, model.Injury{Type: injury})
	}
	return profile
}

// runWithSpinner shows progress on the terminal while the agent call
// is in flight
func runWithSpinner(ctx context.Context, suffix string, fn func(ctx context.Context) *model.AgentResult) *model.AgentResult {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	s.Start()
	defer s.Stop()

	return fn(ctx)
}

func printResult(result *model.AgentResult) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !result.Success {
		return fmt.Errorf("%s: %s", result.Error.Code, result.Error.Message)
	}
	return nil
}
