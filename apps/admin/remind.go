package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// remind runs the scheduled fee jobs once.
func (cli *commandLine) remind(refreshOnly bool) error {
	ctx := context.Background()
	n, err := cli.fees.RefreshStatuses(ctx)
	if err != nil {
		return errors.Wrap(err, "cli.fees.RefreshStatuses()")
	}
	fmt.Fprintf(cli.out, "fee statuses refreshed: %d\n", n)
	if refreshOnly {
		return nil
	}

	sent, err := cli.fees.RemindOverdue(ctx)
	if err != nil {
		return errors.Wrap(err, "cli.fees.RemindOverdue()")
	}
	fmt.Fprintf(cli.out, "overdue reminders sent: %d\n", sent)
	return nil
}
