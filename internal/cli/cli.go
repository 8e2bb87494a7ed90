// Package cli parses the maskd command line surface.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandServe   Command = "serve"
	CommandDecode  Command = "decode"
	CommandEncode  Command = "encode"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandServe:   {},
	CommandDecode:  {},
	CommandEncode:  {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// commandsWithPath take exactly one trailing image-path argument.
var commandsWithPath = map[Command]struct{}{
	CommandDecode: {},
	CommandEncode: {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ImagePath  string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			if _, ok := commandsWithPath[cmd]; ok {
				i++
				if i >= len(args) {
					return Parsed{}, fmt.Errorf("%s requires an image path", cmd)
				}
				parsed.ImagePath = args[i]
			}
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", cmd)
			}
		}
	}

	return parsed, nil
}

// HelpText renders usage for the named binary.
func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  serve          Run the worker daemon on the configured loopback port
  decode PATH    Decode an image file into a host-provided segment (stdio handshake)
  encode PATH    Encode a host-provided segment into an image file (stdio handshake)
  doctor         Run configuration and environment checks
  version        Print version information
  help           Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/maskd/config.conf)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
