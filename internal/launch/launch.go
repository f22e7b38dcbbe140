// Package launch starts the external plot consumer against a session address.
package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config names the consumer process. The channel address is appended as the
// final argument.
type Config struct {
	Command string   `toml:"command" yaml:"command"`
	Args    []string `toml:"args" yaml:"args"`
	Dir     string   `toml:"dir" yaml:"dir"`
	Env     []string `toml:"env" yaml:"env"`
}

// Enabled reports whether a consumer should be spawned at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Command) != ""
}

// Launcher bootstraps the consumer for addr.
type Launcher interface {
	Launch(ctx context.Context, addr string) error
}

// Nop launches nothing; used when the consumer is started out of band.
type Nop struct{}

func (Nop) Launch(context.Context, string) error { return nil }

// ExecLauncher spawns the consumer as an unsupervised child process.
type ExecLauncher struct {
	Config Config
	Logger *zerolog.Logger
}

// Launch starts the process and returns once it is running. The process is
// not tied to ctx and is never killed by this package; its exit is logged.
func (l ExecLauncher) Launch(ctx context.Context, addr string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !l.Config.Enabled() {
		return nil
	}
	logger := l.logger()
	args := append(append([]string(nil), l.Config.Args...), addr)
	cmd := exec.Command(l.Config.Command, args...)
	cmd.Dir = l.Config.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(l.Config.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Config.Env...)
	}

	if err := cmd.Start(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return fmt.Errorf("launch: %s not found: %w", l.Config.Command, err)
		}
		return fmt.Errorf("launch: start %s: %w", l.Config.Command, err)
	}
	pid := cmd.Process.Pid
	logger.Info().Str("command", l.Config.Command).Int("pid", pid).Str("addr", addr).Msg("consumer launched")

	go func() {
		err := cmd.Wait()
		event := logger.Debug()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.Int("pid", pid).Int("exit_code", cmd.ProcessState.ExitCode()).Msg("consumer exited")
	}()
	return nil
}

func (l ExecLauncher) logger() *zerolog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return &log.Logger
}
