package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mjgerace/pnpm/cmd/pnpm/commands"
	"github.com/mjgerace/pnpm/internal/app"
	"github.com/mjgerace/pnpm/internal/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockApp struct {
	installFunc func(ctx context.Context, opts app.InstallOptions) error
	addFunc     func(ctx context.Context, args []string, opts app.AddOptions) error
	json        bool
	verbose     bool
}

func (m *mockApp) Install(ctx context.Context, opts app.InstallOptions) error {
	if m.installFunc != nil {
		return m.installFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Add(ctx context.Context, args []string, opts app.AddOptions) error {
	if m.addFunc != nil {
		return m.addFunc(ctx, args, opts)
	}
	return nil
}

func (m *mockApp) ConfigureLogging(json, verbose bool) {
	m.json = json
	m.verbose = verbose
}

func TestCommands_Install(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.InstallOptions
		mock := &mockApp{
			installFunc: func(_ context.Context, opts app.InstallOptions) error {
				captured = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"install", "--production", "--frozen-lockfile", "--dir", "/work/project", "--json"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, app.InstallOptions{Dir: "/work/project", Production: true, Frozen: true}, captured)
		assert.True(t, mock.json)
		assert.False(t, mock.verbose)
	})

	t.Run("defaults", func(t *testing.T) {
		var captured app.InstallOptions
		mock := &mockApp{
			installFunc: func(_ context.Context, opts app.InstallOptions) error {
				captured = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"i", "--verbose"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, app.InstallOptions{Dir: "."}, captured)
		assert.True(t, mock.verbose)
	})

	t.Run("returns error on install failure", func(t *testing.T) {
		mock := &mockApp{
			installFunc: func(_ context.Context, _ app.InstallOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"install"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects arguments", func(t *testing.T) {
		cli := commands.New(&mockApp{})
		cli.SetArgs([]string{"install", "is-positive"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		require.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Add(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedArgs []string
		var captured app.AddOptions
		mock := &mockApp{
			addFunc: func(_ context.Context, args []string, opts app.AddOptions) error {
				capturedArgs = args
				captured = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"add", "is-positive@^1.0.0", "@types/semver", "-D", "-E", "-C", "/work/project"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, []string{"is-positive@^1.0.0", "@types/semver"}, capturedArgs)
		assert.Equal(t, app.AddOptions{Dir: "/work/project", Dev: true, Exact: true}, captured)
	})

	t.Run("shows usage when no packages provided", func(t *testing.T) {
		mock := &mockApp{
			addFunc: func(_ context.Context, _ []string, _ app.AddOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"add"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Contains(t, buf.String(), "Usage:")
	})
}

func TestCommands_Version(t *testing.T) {
	cli := commands.New(&mockApp{})
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "pnpm version "+build.Version+" (commit: "+build.Commit+", date: "+build.Date+")\n", buf.String())
}
