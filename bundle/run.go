package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"stylo/config"
	"stylo/state"
)

// Prepare creates bundler from program configuration. Returned cache (nil
// when disabled) must be closed by caller.
func Prepare(env *state.LocalEnv, format config.PayloadFormat) (*Bundler, *Cache, error) {
	c, err := env.Compiler()
	if err != nil {
		return nil, nil, err
	}
	fingerprint, err := yaml.Marshal(env.Cfg.Compiler)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to fingerprint compiler configuration: %w", err)
	}

	var cache *Cache
	if env.Cfg.Bundle.Cache.Enable {
		if cache, err = OpenCache(env.Log, env.Cfg.Bundle.Cache.Path); err != nil {
			return nil, nil, err
		}
		env.Rpt.Store("cache.db", env.Cfg.Bundle.Cache.Path)
	}
	b := New(env.Log, c, cache, Options{
		Package:      env.Cfg.Bundle.Package,
		Format:       format,
		Extensions:   env.Cfg.Bundle.Extensions,
		NameTemplate: env.Cfg.Bundle.OutputNameTemplate,
		Fingerprint:  fingerprint,
		Report:       env.Rpt,
	})
	return b, cache, nil
}

func requestedFormat(cmd *cli.Command, def config.PayloadFormat, log *zap.Logger) config.PayloadFormat {
	name := cmd.String("format")
	if len(name) == 0 {
		return def
	}
	f, err := config.ParsePayloadFormat(name)
	if err != nil {
		log.Warn("Unknown payload format requested, using configured one", zap.Stringer("format", def), zap.Error(err))
		return def
	}
	return f
}

// Run is the bundle subcommand: it generates registration files for every
// stylesheet found under sources.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("bundle")

	if cmd.Args().Len() == 0 {
		return errors.New("no input source has been specified")
	}
	dst := cmd.String("out")
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if pkg := cmd.String("package"); len(pkg) > 0 {
		env.Cfg.Bundle.Package = pkg
	}
	env.Overwrite = cmd.Bool("overwrite")

	b, cache, err := Prepare(env, requestedFormat(cmd, env.Cfg.Bundle.Format, log))
	if err != nil {
		return err
	}
	defer func() {
		if er := cache.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close compile cache: %w", er))
		}
	}()

	var sources []Source
	for _, src := range cmd.Args().Slice() {
		found, er := Discover(ctx, src, env.Cfg.Bundle.Extensions, log)
		if er != nil {
			err = multierr.Append(err, er)
			continue
		}
		if len(found) == 0 {
			log.Debug("Nothing to process", zap.String("source", src))
		}
		sources = append(sources, found...)
	}

	log.Info("Bundling starting", zap.Int("stylesheets", len(sources)), zap.String("destination", dst), zap.String("package", env.Cfg.Bundle.Package))
	defer func(start time.Time) {
		log.Info("Bundling completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	written, er := b.Write(ctx, sources, dst, env.Overwrite)
	for _, name := range written {
		env.Rpt.Store(filepath.Join("generated", filepath.Base(name)), name)
	}
	return multierr.Append(err, er)
}

// Compile is the compile subcommand: it compiles single stylesheet and
// writes serialized payload.
func Compile(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	format := requestedFormat(cmd, env.Cfg.Bundle.Format, log)

	sources, err := Discover(ctx, src, env.Cfg.Bundle.Extensions, log)
	if err != nil {
		return err
	}
	if len(sources) != 1 {
		return fmt.Errorf("source must select exactly one stylesheet, found %d", len(sources))
	}

	b, cache, err := Prepare(env, format)
	if err != nil {
		return err
	}
	defer func() {
		if er := cache.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close compile cache: %w", er))
		}
	}()

	c, err := b.Compile(sources[0])
	if err != nil {
		return err
	}
	for _, w := range c.Warnings {
		log.Warn("Declaration skipped", zap.String("source", sources[0].Origin), zap.String("reason", w))
	}
	data := c.Data
	if cmd.Bool("pretty") && format == config.PayloadFormatJson {
		if data, err = Prettify(data); err != nil {
			return err
		}
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		_, err = os.Stdout.Write(data)
		return err
	}
	if _, er := os.Stat(dst); er == nil && !cmd.Bool("overwrite") {
		return fmt.Errorf("output file already exists: %s", dst)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("unable to write payload: %w", err)
	}
	log.Info("Stylesheet compiled", zap.String("from", sources[0].Origin), zap.String("to", dst),
		zap.Stringer("format", format), zap.Bool("cached", c.Cached), zap.Int("warnings", len(c.Warnings)))
	return nil
}
