package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/seed"
)

var errAlreadySeeded = errors.New("the database is already seeded (use -force to seed anyway)")

func (cli *commandLine) seed(opts seed.Options, force bool) (seed.Summary, error) {
	ctx := context.Background()
	if !force {
		seeded, err := seed.IsSeeded(ctx, cli.seedSvcs.Users)
		if err != nil {
			return seed.Summary{}, errors.Wrap(err, "seed.IsSeeded()")
		}
		if seeded {
			return seed.Summary{}, errAlreadySeeded
		}
	}
	return seed.Load(ctx, cli.seedSvcs, opts)
}
