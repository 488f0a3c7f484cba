package inspect

import (
	"context"
	"errors"
	"os"
	"path"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"stylo/bundle"
	"stylo/config"
	"stylo/state"
)

// Run is the inspect subcommand.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	if cmd.Args().Len() == 0 {
		return errors.New("no input source has been specified")
	}

	props, err := ParseProps(cmd.StringSlice("prop"))
	if err != nil {
		return err
	}
	req := Request{
		ClassName: cmd.String("class"),
		Props:     props,
		Hover:     cmd.Bool("hover"),
		Active:    cmd.Bool("active"),
		Focus:     cmd.Bool("focus"),
		Width:     cmd.Float("layout-width"),
		Height:    cmd.Float("layout-height"),
	}

	// environment overrides must be in place before registry is created
	if cmd.Bool("dark") {
		env.Cfg.Runtime.ColorScheme = "dark"
	}
	if w := cmd.Float("width"); w > 0 {
		env.Cfg.Runtime.Width = w
	}
	if h := cmd.Float("height"); h > 0 {
		env.Cfg.Runtime.Height = h
	}

	var sources []bundle.Source
	for _, src := range cmd.Args().Slice() {
		found, err := bundle.Discover(ctx, src, env.Cfg.Bundle.Extensions, log)
		if err != nil {
			return err
		}
		sources = append(sources, found...)
	}
	if len(sources) == 0 {
		return errors.New("no stylesheets found")
	}

	c, err := env.Compiler()
	if err != nil {
		return err
	}
	res, err := Inspect(env.Log, c, env.Registry(), sources, req, env.Cfg.Runtime.Output())
	if err != nil {
		return err
	}
	for name, warnings := range res.Warnings {
		for _, w := range warnings {
			log.Warn("Declaration skipped", zap.String("source", name), zap.String("reason", w))
		}
	}

	if env.Rpt != nil {
		for i, p := range res.Payloads {
			src := sources[i]
			env.Rpt.StoreSource(src.Name, src.Origin, src.Data)
			data, err := bundle.Encode(p, config.PayloadFormatJson)
			if err != nil {
				return err
			}
			env.Rpt.StorePayload(src.Name, src.Origin, config.PayloadFormatJson, data, res.Warnings[src.Name])
			env.Rpt.StoreData(path.Join("trees", src.Name+".txt"), []byte(p.String()))
		}
	}
	return res.Write(os.Stdout, cmd.Bool("tree"))
}
