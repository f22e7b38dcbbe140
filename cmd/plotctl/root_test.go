package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/plotwire/internal/protocol/frame"
	"github.com/danmuck/plotwire/internal/protocol/session"
	"github.com/danmuck/plotwire/internal/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"send", "serve", "listen", "dump", "init"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := newRootCommand()
	cfgFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfgFlag)
	assert.Equal(t, "c", cfgFlag.Shorthand)
	require.NotNil(t, cmd.PersistentFlags().Lookup("address"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestLoadBatchFile(t *testing.T) {
	req, err := loadBatchFile(filepath.Join("testdata", "batch.toml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"plt.figure()", "plt.plot(t, v)"}, req.Commands)
	assert.Contains(t, req.Raw, "plt.imshow(grid)")
	require.Len(t, req.Data, 3)
	assert.Equal(t, "d", req.Data[0].Type)

	items, err := req.Items()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int{2, 2}, items[2].Data.Shape())
}

func TestLoadBatchFileRejectsUnknownKeys(t *testing.T) {
	_, err := loadBatchFile(filepath.Join("testdata", "typo.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comands")
}

func TestDumpPrintsCapturedBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.pltw")
	f, err := os.Create(path)
	require.NoError(t, err)

	sess := session.New(transport.NewCaptureWriter(f, frame.DefaultLimits()), session.WithLogger(zerolog.Nop()))
	req, err := loadBatchFile(filepath.Join("testdata", "batch.toml"))
	require.NoError(t, err)
	items, err := req.Items()
	require.NoError(t, err)
	for _, c := range req.Commands {
		sess.Push(c)
	}
	sess.Raw(req.Raw)
	require.NoError(t, sess.Send(items...))
	require.NoError(t, sess.Close())

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"dump", "--values", "2", path})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "batch "), text)
	assert.Contains(t, text, "  t d (3,) [0 0.5 ... +1]\n")
	assert.Contains(t, text, "  v f (3,) [1.5 2.5 ... +1]\n")
	assert.Contains(t, text, "  grid B (2,2) [0 64 ... +2]\n")
	assert.Contains(t, text, "  > plt.plot(t, v)\n")
	assert.Contains(t, text, "  > plt.show()\n")
	assert.True(t, strings.HasSuffix(text, "exit\n"), text)
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plotwire.yaml")
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "wrote "+path)

	cmd = newRootCommand()
	cmd.SetArgs([]string{"init", path})
	require.Error(t, cmd.Execute())
}

func TestFormatValues(t *testing.T) {
	assert.Equal(t, "[]", formatValues(nil, 4))
	assert.Equal(t, "[1 2]", formatValues([]float64{1, 2}, 4))
	assert.Equal(t, "[1 ... +2]", formatValues([]float64{1, 2, 3}, 1))
}
