// Package bundle implements the build time side of stylesheets: it compiles
// stylesheet sources into payloads and generates Go registration files
// embedding them verbatim.
package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stylo/compiler"
	"stylo/config"
	"stylo/ir"
	"stylo/misc"
)

// Options controls bundling.
type Options struct {
	Package      string
	Format       config.PayloadFormat
	Extensions   []string
	NameTemplate string
	// Fingerprint identifies compiler configuration, cached payloads
	// compiled with a different one are not reused.
	Fingerprint []byte
	// Report receives every compiled stylesheet with its payload and
	// warnings, may be nil.
	Report *config.Report
}

// Compiled is stylesheet payload serialized in requested format.
type Compiled struct {
	Data     []byte
	Warnings []string
	Cached   bool
}

// Generated is registration file produced for a stylesheet.
type Generated struct {
	Source string
	File   string
	Ident  string
	Code   []byte
}

// Bundler compiles stylesheets and generates registration code.
type Bundler struct {
	log      *zap.Logger
	compiler *compiler.Compiler
	cache    *Cache
	opts     Options
}

// New creates bundler, cache may be nil.
func New(log *zap.Logger, c *compiler.Compiler, cache *Cache, opts Options) *Bundler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bundler{
		log:      log.Named("bundle"),
		compiler: c,
		cache:    cache,
		opts:     opts,
	}
}

// Intercepts is the resolver hook: it reports whether file should be handled
// by the bundler rather than by a regular loader.
func (b *Bundler) Intercepts(name string) bool {
	return Intercepts(name, b.opts.Extensions)
}

// Compile compiles stylesheet source and serializes payload. Syntax errors
// are fatal, skipped declarations are returned as warnings.
func (b *Bundler) Compile(src Source) (*Compiled, error) {
	b.opts.Report.StoreSource(src.Name, src.Origin, src.Data)

	format := b.opts.Format.String()
	key := Key([]byte(format), b.opts.Fingerprint, src.Data)
	if b.cache != nil {
		e, err := b.cache.Get(key, format)
		if err != nil {
			return nil, err
		}
		if e != nil {
			b.opts.Report.StorePayload(src.Name, src.Origin, b.opts.Format, e.Data, e.Warnings)
			return &Compiled{Data: e.Data, Warnings: e.Warnings, Cached: true}, nil
		}
	}

	res, err := b.compiler.Compile(src.Data, src.Origin)
	if err != nil {
		return nil, err
	}
	data, err := Encode(res.Payload, b.opts.Format)
	if err != nil {
		return nil, err
	}
	out := &Compiled{Data: data, Warnings: Describe(res.Warnings)}
	b.opts.Report.StorePayload(src.Name, src.Origin, b.opts.Format, out.Data, out.Warnings)
	if b.cache != nil {
		if err := b.cache.Put(key, format, &Entry{Data: out.Data, Warnings: out.Warnings}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Transform compiles stylesheet and substitutes its payload into generated
// registration code.
func (b *Bundler) Transform(src Source) (*Generated, *Compiled, error) {
	c, err := b.Compile(src)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range c.Warnings {
		b.log.Warn("Declaration skipped", zap.String("source", src.Origin), zap.String("reason", w))
	}

	file, err := outputName(b.opts.NameTemplate, src.Name, b.opts.Format, b.opts.Package)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to prepare output name for %s: %w", src.Name, err)
	}
	g := &Generated{Source: src.Name, File: file, Ident: Identifier(src.Name)}
	g.Code, err = generate(registrationValues{
		App:     misc.GetAppName(),
		Package: b.opts.Package,
		Runtime: RuntimeImport,
		Source:  src.Name,
		Ident:   g.Ident,
		Format:  b.opts.Format.String(),
		Payload: string(c.Data),
	})
	if err != nil {
		return nil, nil, err
	}
	return g, c, nil
}

// Write transforms sources writing generated files into dir. Existing files
// are replaced only when overwrite is requested. Errors of individual
// stylesheets do not stop processing and are returned combined.
func (b *Bundler) Write(ctx context.Context, sources []Source, dir string, overwrite bool) (written []string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}

	files := make(map[string]string)
	idents := make(map[string]string)
	for _, src := range sources {
		if er := ctx.Err(); er != nil {
			return written, multierr.Append(err, er)
		}
		start := time.Now()

		g, c, er := b.Transform(src)
		if er != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", src.Origin, er))
			continue
		}
		if prev, ok := files[g.File]; ok {
			err = multierr.Append(err, fmt.Errorf("%s: output file %s already generated for %s", src.Origin, g.File, prev))
			continue
		}
		if prev, ok := idents[g.Ident]; ok {
			err = multierr.Append(err, fmt.Errorf("%s: identifier %s already used by %s", src.Origin, g.Ident, prev))
			continue
		}
		files[g.File], idents[g.Ident] = src.Name, src.Name

		name := filepath.Join(dir, g.File)
		if _, er := os.Stat(name); er == nil {
			if !overwrite {
				err = multierr.Append(err, fmt.Errorf("%s: output file already exists: %s", src.Origin, name))
				continue
			}
			b.log.Warn("Overwriting existing file", zap.String("file", name))
		}
		if er := os.WriteFile(name, g.Code, 0644); er != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", src.Origin, er))
			continue
		}
		written = append(written, name)
		b.log.Info("Stylesheet bundled",
			zap.String("from", src.Origin), zap.String("to", name), zap.String("ident", g.Ident),
			zap.Bool("cached", c.Cached), zap.Int("size", len(c.Data)), zap.Duration("elapsed", time.Since(start)))
	}
	return written, err
}

// Encode serializes payload in requested format.
func Encode(p *ir.Payload, f config.PayloadFormat) ([]byte, error) {
	switch f {
	case config.PayloadFormatJson:
		return ir.EncodeJSON(p, false)
	case config.PayloadFormatIon:
		return ir.EncodeIon(p)
	}
	return nil, fmt.Errorf("unsupported payload format %s", f)
}

// Describe flattens compiler warnings into sorted human readable lines.
func Describe(w *compiler.Warnings) []string {
	if w.Empty() {
		return nil
	}
	var out []string
	for _, p := range w.Properties {
		out = append(out, fmt.Sprintf("unknown property %q", p))
	}
	for p, values := range w.Values {
		for _, v := range values {
			out = append(out, fmt.Sprintf("property %q rejected value %q", p, v))
		}
	}
	slices.Sort(out)
	return out
}

// Prettify re-indents JSON payload for humans.
func Prettify(data []byte) ([]byte, error) {
	p, err := ir.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return ir.EncodeJSON(p, true)
}
