package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fitforge-ai/fitforge/pkg/adapter"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func archiveCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:      "archive",
		Usage:     "Print an archived raw search response",
		ArgsUsage: "<archive-key>",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			if c.Args().Len() != 1 {
				return fmt.Errorf("exactly one archive key is required")
			}
			if cfg.archiveBucket == "" {
				return goerr.New("missing configuration: archive-bucket is required",
					goerr.T(model.ErrTagConfiguration))
			}

			storage, err := adapter.NewStorage(ctx, cfg.archiveBucket)
			if err != nil {
				return goerr.Wrap(err, "failed to create archive storage")
			}

			r, err := storage.Get(ctx, c.Args().First())
			if err != nil {
				return err
			}
			defer r.Close()

			if _, err := io.Copy(os.Stdout, r); err != nil {
				return goerr.Wrap(err, "failed to read archive object")
			}
			return nil
		},
	}
}
