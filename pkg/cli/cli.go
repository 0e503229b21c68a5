package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	var cfg config

	cmd := &cli.Command{
		Name:  "fitforge",
		Usage: "AI fitness coaching agents",
		Flags: globalFlags(&cfg),
		Commands: []*cli.Command{
			researchCommand(&cfg),
			generateCommand(&cfg),
			adjustCommand(&cfg),
			memoryCommand(&cfg),
			archiveCommand(&cfg),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
