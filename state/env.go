// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stylo/compiler"
	"stylo/config"
	"stylo/registry"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by compile and bundle subcommands
	Overwrite bool

	compiler      *compiler.Compiler
	registry      *registry.Registry
	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Compiler returns stylesheet compiler configured from compiler section of
// configuration, created on first use.
func (e *LocalEnv) Compiler() (*compiler.Compiler, error) {
	if e.compiler != nil {
		return e.compiler, nil
	}
	opts, err := e.Cfg.Compiler.Options()
	if err != nil {
		return nil, fmt.Errorf("unable to prepare compiler: %w", err)
	}
	e.compiler = compiler.New(e.Log, opts)
	return e.compiler, nil
}

// Registry returns registry with environment from runtime section of
// configuration, created on first use.
func (e *LocalEnv) Registry() *registry.Registry {
	if e.registry == nil {
		e.registry = registry.New(e.Log, e.Cfg.Runtime.Environment())
	}
	return e.registry
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
