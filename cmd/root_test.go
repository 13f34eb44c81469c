package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, stdout.String(), "chartfetch dev")
}

func TestRootShowsHelp(t *testing.T) {
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	require.Contains(t, stdout.String(), "fetch")
	require.Contains(t, stdout.String(), "version")
}

func TestResolveExportPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "bare name joins output dir", path: "top.json", want: "exports/top.json"},
		{name: "relative path stays", path: "./top.json", want: "./top.json"},
		{name: "nested path stays", path: "out/top.json", want: "out/top.json"},
		{name: "absolute path stays", path: "/tmp/top.json", want: "/tmp/top.json"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, resolveExportPath("exports", tc.path))
		})
	}
}
