// Package urfavecli holds helpers for applications built on
// github.com/urfave/cli/v2.
package urfavecli

import (
	"github.com/urfave/cli/v2"

	"github.com/ortweb/infra/go/sklog"
)

// LogFlags logs the value of every application flag at Debug level, one line
// per flag, in the order the flags were declared.
func LogFlags(c *cli.Context) {
	for _, f := range c.App.Flags {
		names := f.Names()
		if len(names) == 0 {
			continue
		}
		sklog.Debugf("Flags: --%s=%v", names[0], c.Value(names[0]))
	}
}
