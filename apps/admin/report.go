package main

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/report"
	rendersvc "github.com/trezcool/shule/services/render"
)

const stdout = "-"

func reportParams(from, to, date string) (report.Params, error) {
	var params report.Params
	var err error
	if params.Period.From, err = core.ParseDate(from); err != nil {
		return report.Params{}, errors.Wrap(err, "-from")
	}
	if params.Period.To, err = core.ParseDate(to); err != nil {
		return report.Params{}, errors.Wrap(err, "-to")
	}
	if params.Date, err = core.ParseDate(date); err != nil {
		return report.Params{}, errors.Wrap(err, "-date")
	}
	return params, nil
}

// report renders the report to out (KIND.EXT when empty) and returns where it was written.
func (cli *commandLine) report(kind, format, out string, params report.Params) (string, error) {
	renderer, err := rendersvc.ForFormat(format)
	if err != nil {
		return "", err
	}
	ctx := context.Background()
	if out == stdout {
		return out, cli.reports.Render(ctx, cli.out, renderer, kind, params)
	}

	if out == "" {
		out = kind + renderer.Extension()
	}
	f, err := os.Create(out)
	if err != nil {
		return "", errors.Wrap(err, "creating report file")
	}
	if err = cli.reports.Render(ctx, f, renderer, kind, params); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return "", err
	}
	return out, errors.Wrap(f.Close(), "closing report file")
}
