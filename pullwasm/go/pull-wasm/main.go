// pull-wasm downloads the prebuilt WebAssembly runtime files of a CI build
// into a local directory, so they do not have to be rebuilt locally.
//
//	pull-wasm                  latest release build on main
//	pull-wasm debug            latest debug build on main
//	pull-wasm 12345            release files of build 12345
//	pull-wasm debug 12345      debug files of build 12345
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ortweb/infra/go/sklog"
	"github.com/ortweb/infra/pullwasm/go/pullwasm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := pullwasm.NewApp(nil)
	if err := pullwasm.Run(ctx, app, os.Args); err != nil {
		stop()
		sklog.Fatal(err)
	}
}
