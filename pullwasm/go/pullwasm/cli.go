package pullwasm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ortweb/infra/go/httputils"
	"github.com/ortweb/infra/go/skerr"
	"github.com/ortweb/infra/go/sklog"
	"github.com/ortweb/infra/go/urfavecli"
	"github.com/ortweb/infra/pullwasm/go/args"
)

// flag names
const (
	outDirFlagName       = "out-dir"
	apiURLFlagName       = "api-url"
	organizationFlagName = "organization"
	projectFlagName      = "project"
	definitionFlagName   = "definition"
	repositoryFlagName   = "repository"
	branchFlagName       = "branch"
	timeoutFlagName      = "timeout"
	retryFlagName        = "retry"
	envFileFlagName      = "env-file"
	verboseFlagName      = "verbose"
)

const helpTemplate = args.HelpMessage + `
Flags:
{{range .VisibleFlags}}  {{.}}
{{end}}`

// ClientFactory builds the http.Client used for every request of a run.
type ClientFactory func(httputils.ClientConfig) *http.Client

// DefaultClientFactory returns cfg.Client().
func DefaultClientFactory(cfg httputils.ClientConfig) *http.Client {
	return cfg.Client()
}

// NewApp returns the pull-wasm command line application. newClient may be nil,
// in which case DefaultClientFactory is used.
func NewApp(newClient ClientFactory) *cli.App {
	if newClient == nil {
		newClient = DefaultClientFactory
	}
	defaults := DefaultOptions()
	return &cli.App{
		Name:                  "pull-wasm",
		Usage:                 "Download prebuilt WebAssembly artifacts from CI.",
		ArgsUsage:             "[release|debug] [buildID] [help|h]",
		HideHelpCommand:       true,
		CustomAppHelpTemplate: helpTemplate,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    outDirFlagName,
				Value:   defaults.OutDir,
				Usage:   "Directory the WebAssembly files are written to. Created if missing.",
				EnvVars: []string{"PULL_WASM_OUT_DIR"},
			},
			&cli.StringFlag{
				Name:    apiURLFlagName,
				Value:   defaults.BaseURL,
				Usage:   "Base URL of the Azure DevOps REST API.",
				EnvVars: []string{"PULL_WASM_API_URL"},
			},
			&cli.StringFlag{
				Name:    organizationFlagName,
				Value:   defaults.Organization,
				Usage:   "Azure DevOps organization.",
				EnvVars: []string{"PULL_WASM_ORGANIZATION"},
			},
			&cli.StringFlag{
				Name:    projectFlagName,
				Value:   defaults.Project,
				Usage:   "Azure DevOps project.",
				EnvVars: []string{"PULL_WASM_PROJECT"},
			},
			&cli.IntFlag{
				Name:    definitionFlagName,
				Value:   defaults.LatestQuery.Definition,
				Usage:   "Pipeline definition searched for the latest build.",
				EnvVars: []string{"PULL_WASM_DEFINITION"},
			},
			&cli.StringFlag{
				Name:    repositoryFlagName,
				Value:   defaults.LatestQuery.RepositoryID,
				Usage:   "GitHub repository searched for the latest build.",
				EnvVars: []string{"PULL_WASM_REPOSITORY"},
			},
			&cli.StringFlag{
				Name:    branchFlagName,
				Value:   defaults.LatestQuery.BranchName,
				Usage:   "Branch searched for the latest build.",
				EnvVars: []string{"PULL_WASM_BRANCH"},
			},
			&cli.DurationFlag{
				Name:    timeoutFlagName,
				Usage:   "Timeout of each request, including reading the response. 0 means no timeout.",
				EnvVars: []string{"PULL_WASM_TIMEOUT"},
			},
			&cli.BoolFlag{
				Name:    retryFlagName,
				Usage:   "Retry requests that fail with a network or 5xx error, with exponential backoff.",
				EnvVars: []string{"PULL_WASM_RETRY"},
			},
			&cli.StringFlag{
				Name:    envFileFlagName,
				Usage:   "Optional dotenv file loaded before the proxy settings are read, e.g. with GLOBAL_AGENT_HTTPS_PROXY.",
				EnvVars: []string{"PULL_WASM_ENV_FILE"},
			},
			&cli.BoolFlag{
				Name:    verboseFlagName,
				Usage:   "Log every request.",
				EnvVars: []string{"PULL_WASM_VERBOSE"},
			},
		},
		Action: func(c *cli.Context) error {
			a := args.Parse(c.Args().Slice())
			if a.Help {
				return cli.ShowAppHelp(c)
			}
			sklog.SetVerbose(c.Bool(verboseFlagName))
			urfavecli.LogFlags(c)

			if envFile := c.String(envFileFlagName); envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return skerr.Wrapf(err, "loading %s", envFile)
				}
			}
			client := newClient(clientConfig(c.Duration(timeoutFlagName), c.Bool(retryFlagName), httputils.ProxyFromEnvironment()))
			return New(client, optionsFromFlags(c)).Run(c.Context, a)
		},
	}
}

// Run runs app with argv, the full command line including the program name.
//
// Flags may appear anywhere on the command line, and flag parsing ends before
// the first positional argument, so a build ID such as "-7" is not taken for
// a flag.
func Run(ctx context.Context, app *cli.App, argv []string) error {
	return app.RunContext(ctx, orderArgs(app.Flags, argv))
}

// orderArgs moves the flags in argv, with their values, in front of the
// positional arguments and separates the two with "--".
func orderArgs(flags []cli.Flag, argv []string) []string {
	if len(argv) == 0 {
		return argv
	}
	takesValue := map[string]bool{}
	for _, f := range flags {
		if _, ok := f.(*cli.BoolFlag); ok {
			continue
		}
		for _, name := range f.Names() {
			takesValue[name] = true
		}
	}

	var flagArgs, positional []string
	rest := argv[1:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		if tok == "--" {
			positional = append(positional, rest[i+1:]...)
			break
		}
		if tok == "-" || !strings.HasPrefix(tok, "-") || args.IsInteger(tok) {
			positional = append(positional, tok)
			continue
		}
		flagArgs = append(flagArgs, tok)
		name := strings.TrimLeft(tok, "-")
		if !strings.Contains(name, "=") && takesValue[name] && i+1 < len(rest) {
			i++
			flagArgs = append(flagArgs, rest[i])
		}
	}

	ret := append([]string{argv[0]}, flagArgs...)
	if len(positional) > 0 {
		ret = append(ret, "--")
		ret = append(ret, positional...)
	}
	return ret
}

// clientConfig is the HTTP setup of a run. Only the transport's own timeouts
// apply unless timeout is non-zero, and requests are not retried unless asked
// for.
func clientConfig(timeout time.Duration, retry bool, proxy httputils.ProxyFunc) httputils.ClientConfig {
	cfg := httputils.DefaultClientConfig().WithDialTimeout(0).WithRequestTimeout(timeout).WithProxy(proxy)
	if !retry {
		cfg = cfg.WithoutRetries()
	}
	return cfg
}

func optionsFromFlags(c *cli.Context) Options {
	opts := DefaultOptions()
	opts.OutDir = c.String(outDirFlagName)
	opts.BaseURL = c.String(apiURLFlagName)
	opts.Organization = c.String(organizationFlagName)
	opts.Project = c.String(projectFlagName)
	opts.LatestQuery.Definition = c.Int(definitionFlagName)
	opts.LatestQuery.RepositoryID = c.String(repositoryFlagName)
	opts.LatestQuery.BranchName = c.String(branchFlagName)
	return opts
}
