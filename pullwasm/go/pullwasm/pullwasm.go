// Package pullwasm pulls prebuilt WebAssembly artifacts from CI into a local
// directory: find the build, find its artifact, download it and extract the
// runtime files.
package pullwasm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ortweb/infra/go/skerr"
	"github.com/ortweb/infra/go/sklog"
	"github.com/ortweb/infra/go/timer"
	"github.com/ortweb/infra/pullwasm/go/args"
	"github.com/ortweb/infra/pullwasm/go/azdo"
	"github.com/ortweb/infra/pullwasm/go/download"
	"github.com/ortweb/infra/pullwasm/go/extract"
)

// Options controls where artifacts come from and where they go.
type Options struct {
	BaseURL      string
	Organization string
	Project      string

	// LatestQuery selects the build when no build ID is given.
	LatestQuery azdo.BuildQuery

	// OutDir receives the extracted files.
	OutDir string

	// Files are the members extracted from the artifact's folder.
	Files []string
}

// DefaultOptions pulls from the onnxruntime WebAssembly pipeline into "dist".
func DefaultOptions() Options {
	return Options{
		BaseURL:      azdo.DefaultBaseURL,
		Organization: azdo.DefaultOrganization,
		Project:      azdo.DefaultProject,
		LatestQuery:  azdo.LatestBuildQuery(),
		OutDir:       "dist",
		Files:        extract.DefaultFiles,
	}
}

// Puller runs the pull stages one after another.
type Puller struct {
	client *http.Client
	azdo   *azdo.Client
	opts   Options
}

// New returns a Puller which makes every request with client.
func New(client *http.Client, opts Options) *Puller {
	return &Puller{
		client: client,
		azdo:   azdo.NewClient(client, opts.BaseURL, opts.Organization, opts.Project),
		opts:   opts,
	}
}

// Run pulls the artifacts selected by a. It must not be called for a help
// request.
func (p *Puller) Run(ctx context.Context, a args.Args) error {
	target := fmt.Sprintf("latest %q branch", shortBranch(p.opts.LatestQuery.BranchName))
	if a.BuildID != "" {
		target = fmt.Sprintf("build %q", a.BuildID)
	}
	sklog.Infof("=== Start to pull %s WebAssembly artifacts from CI for %s ===", a.Config, target)
	defer timer.New("Pulling WebAssembly artifacts took").Stop()

	build, err := p.LocateBuild(ctx, a.BuildID)
	if err != nil {
		return err
	}
	artifact, err := p.LocateArtifact(ctx, build, a.Config.FolderName())
	if err != nil {
		return err
	}

	sklog.Info("=== Ready to download zip files ===")
	downloadTimer := timer.New("Downloading " + artifact.Name + " took")
	body, err := download.Zip(ctx, p.client, artifact.Resource.DownloadURL, artifact.Name)
	downloadTimer.Stop()
	if err != nil {
		return skerr.Wrapf(err, "fetching archive of build %d", build.ID)
	}
	if err := extract.Extract(body, a.Config.FolderName(), p.opts.Files, p.opts.OutDir); err != nil {
		return skerr.Wrapf(err, "extracting archive of build %d", build.ID)
	}
	return nil
}

// LocateBuild finds the build with the given ID, or the latest one matching
// Options.LatestQuery if buildID is empty.
func (p *Puller) LocateBuild(ctx context.Context, buildID string) (azdo.Build, error) {
	q := p.opts.LatestQuery
	if buildID != "" {
		q = azdo.ExplicitBuildQuery(buildID)
	}
	build, err := p.azdo.FindBuild(ctx, q)
	if err != nil {
		return azdo.Build{}, skerr.Wrapf(err, "locating build")
	}
	if buildID == "" {
		sklog.Infof("=== Found latest build on %s branch: %d ===", shortBranch(q.BranchName), build.ID)
	} else {
		sklog.Infof("=== Found build %d ===", build.ID)
	}
	sklog.Debugf("Build %d: number %s, result %s, commit %s", build.ID, build.BuildNumber, build.Result, build.SourceVersion)
	return build, nil
}

// LocateArtifact finds the artifact called name in build.
func (p *Puller) LocateArtifact(ctx context.Context, build azdo.Build, name string) (azdo.Artifact, error) {
	artifacts, err := p.azdo.ListArtifacts(ctx, build.ID)
	if err != nil {
		return azdo.Artifact{}, skerr.Wrapf(err, "locating artifact %q", name)
	}
	artifact, err := azdo.FindArtifact(artifacts, name)
	if err != nil {
		return azdo.Artifact{}, skerr.Wrapf(err, "locating artifact of build %d", build.ID)
	}
	return artifact, nil
}

func shortBranch(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
