// Package args interprets the positional command line of pull-wasm.
package args

import (
	"regexp"
)

// Config is the build flavor whose artifacts are pulled.
type Config string

const (
	Release Config = "release"
	Debug   Config = "debug"
)

// FolderName is the name of the CI artifact, and of the folder inside its zip
// archive, that holds the files for this Config.
func (c Config) FolderName() string {
	if c == Release {
		return "Release_wasm"
	}
	return "Debug_wasm"
}

// HelpMessage is printed for any of the help tokens.
const HelpMessage = `
pull-wasm

Usage:
  pull-wasm [flags] [config] [buildID] [help|h]


  config       optional, "release"(default) or "debug"
  buildID      optional, if not specified, use latest main branch, otherwise a number for a specified build ID
  help|h       print this message and exit
`

var helpTokens = map[string]bool{
	"--help": true,
	"-h":     true,
	"help":   true,
	"h":      true,
}

// Leading integer, the way JavaScript's parseInt(s, 10) accepts it.
var integerPrefix = regexp.MustCompile(`^\s*[+-]?[0-9]`)

// IsInteger reports whether tok starts with a base-10 integer, optionally
// signed, so that a build ID such as "-7" can be told apart from a flag.
func IsInteger(tok string) bool {
	return integerPrefix.MatchString(tok)
}

// Args is the interpreted command line.
type Args struct {
	Config Config
	// BuildID is empty when the latest build should be used.
	BuildID string
	// Help is set when any token asks for the usage text; nothing else should
	// happen in that case.
	Help bool
}

// Parse interprets argv, which excludes the program name. It never fails:
// unrecognized tokens fall back to the defaults.
//
// A first token of "debug" or "release" selects the Config and the second
// token is the build ID. A first token that starts with an integer is the build
// ID. Any other first token is ignored and the second token is taken as the
// build ID.
func Parse(argv []string) Args {
	for _, a := range argv {
		if helpTokens[a] {
			return Args{Config: Release, Help: true}
		}
	}
	arg0 := ""
	if len(argv) > 0 {
		arg0 = argv[0]
	}
	arg0IsConfig := arg0 == string(Debug) || arg0 == string(Release)
	arg0IsInteger := !arg0IsConfig && IsInteger(arg0)

	ret := Args{Config: Release}
	if arg0IsConfig {
		ret.Config = Config(arg0)
	}
	if arg0IsInteger {
		ret.BuildID = arg0
	} else if len(argv) > 1 {
		ret.BuildID = argv[1]
	}
	return ret
}
