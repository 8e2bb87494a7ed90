package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/maskd.conf", "serve"})
	require.NoError(t, err)
	require.Equal(t, CommandServe, parsed.Command)
	require.Equal(t, "/tmp/maskd.conf", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseDecodeTakesImagePath(t *testing.T) {
	parsed, err := Parse([]string{"decode", "/tmp/photo.png"})
	require.NoError(t, err)
	require.Equal(t, CommandDecode, parsed.Command)
	require.Equal(t, "/tmp/photo.png", parsed.ImagePath)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantHelp bool
		wantPath string
	}{
		{name: "help short flag", args: []string{"-h"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "help long flag", args: []string{"--help"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "version flag", args: []string{"--version"}, wantCmd: CommandVersion},
		{name: "serve", args: []string{"serve"}, wantCmd: CommandServe},
		{name: "doctor", args: []string{"doctor"}, wantCmd: CommandDoctor},
		{name: "encode with path", args: []string{"encode", "out.png"}, wantCmd: CommandEncode, wantPath: "out.png"},
		{name: "decode missing path", args: []string{"decode"}, wantErr: "requires an image path"},
		{name: "encode missing path", args: []string{"encode"}, wantErr: "requires an image path"},
		{name: "config after command", args: []string{"serve", "--config", "/tmp/cfg"}, wantErr: "unexpected arguments after command"},
		{name: "missing config path", args: []string{"--config"}, wantErr: "requires a path"},
		{name: "unknown flag", args: []string{"--fast"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"segment"}, wantErr: "unknown command"},
		{name: "trailing arg after serve", args: []string{"serve", "extra"}, wantErr: "unexpected arguments"},
		{name: "trailing arg after decode path", args: []string{"decode", "a.png", "b.png"}, wantErr: "unexpected arguments"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ImagePath)
		})
	}
}

func TestHelpTextNamesEveryCommand(t *testing.T) {
	text := HelpText("maskd")
	require.Contains(t, text, "Usage:")
	for cmd := range validCommands {
		require.Contains(t, text, string(cmd))
	}
}
