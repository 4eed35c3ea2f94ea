// Package azdo is a small client for the Azure DevOps build REST API. It only
// knows how to list builds and their artifacts.
//
// API reference:
// https://learn.microsoft.com/en-us/rest/api/azure/devops/build/builds/list
// https://learn.microsoft.com/en-us/rest/api/azure/devops/build/artifacts/list
package azdo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ortweb/infra/go/httputils"
	"github.com/ortweb/infra/go/skerr"
	"github.com/ortweb/infra/go/sklog"
	"github.com/ortweb/infra/go/util"
)

const (
	DefaultBaseURL      = "https://dev.azure.com"
	DefaultOrganization = "onnxruntime"
	DefaultProject      = "onnxruntime"

	BuildsAPIVersion    = "6.1-preview.6"
	ArtifactsAPIVersion = "6.1-preview.5"

	BuildsURL    = "%s/_apis/build/builds"
	ArtifactsURL = "%s/_apis/build/builds/%d/artifacts"
)

var jsonContentType = regexp.MustCompile(`^application/json`)

// Build is one run of a pipeline.
type Build struct {
	ID            int64     `json:"id"`
	BuildNumber   string    `json:"buildNumber"`
	Status        string    `json:"status"`
	Result        string    `json:"result"`
	SourceBranch  string    `json:"sourceBranch"`
	SourceVersion string    `json:"sourceVersion"`
	FinishTime    time.Time `json:"finishTime"`
}

// ArtifactResource says where an artifact's content can be downloaded from.
type ArtifactResource struct {
	Type        string `json:"type"`
	DownloadURL string `json:"downloadUrl"`
}

// Artifact is a named output bundle attached to a Build.
type Artifact struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Resource ArtifactResource `json:"resource"`
}

// listResponse is the envelope around every list result of the API.
type listResponse[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

// Client talks to a single Azure DevOps project.
type Client struct {
	client *http.Client
	// URL of the project, e.g. https://dev.azure.com/onnxruntime/onnxruntime.
	URL string
}

// NewClient returns a Client for the given organization and project hosted at
// baseURL. The http.Client is used as is, so it should already carry any proxy
// and timeout settings.
func NewClient(c *http.Client, baseURL, organization, project string) *Client {
	if c == nil {
		c = httputils.DefaultClientConfig().WithoutRetries().Client()
	}
	return &Client{
		client: c,
		URL:    fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(organization), url.PathEscape(project)),
	}
}

// ListBuilds returns the builds matching the query, newest first.
func (c *Client) ListBuilds(ctx context.Context, q BuildQuery) ([]Build, error) {
	u := fmt.Sprintf(BuildsURL, c.URL) + "?" + q.values().Encode()
	var resp listResponse[Build]
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, skerr.Wrapf(err, "listing builds")
	}
	return resp.Value, nil
}

// FindBuild returns the first build matching the query. It is an error if
// there is none.
func (c *Client) FindBuild(ctx context.Context, q BuildQuery) (Build, error) {
	builds, err := c.ListBuilds(ctx, q)
	if err != nil {
		return Build{}, err
	}
	if len(builds) == 0 {
		return Build{}, skerr.Fmt("no build found for %s", q)
	}
	return builds[0], nil
}

// ListArtifacts returns all artifacts of the given build.
func (c *Client) ListArtifacts(ctx context.Context, buildID int64) ([]Artifact, error) {
	v := url.Values{}
	v.Set("api-version", ArtifactsAPIVersion)
	u := fmt.Sprintf(ArtifactsURL, c.URL, buildID) + "?" + v.Encode()
	var resp listResponse[Artifact]
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, skerr.Wrapf(err, "listing artifacts of build %d", buildID)
	}
	return resp.Value, nil
}

// FindArtifact returns the artifact with the given name. If more than one has
// that name the last one wins. It is an error if there is none, and the error
// names the artifacts that do exist.
func FindArtifact(artifacts []Artifact, name string) (Artifact, error) {
	var found *Artifact
	for i := range artifacts {
		if artifacts[i].Name == name {
			found = &artifacts[i]
		}
	}
	if found == nil {
		names := make([]string, 0, len(artifacts))
		for _, a := range artifacts {
			names = append(names, a.Name)
		}
		sort.Strings(names)
		return Artifact{}, skerr.Fmt("no artifact named %q; build has %q", name, names)
	}
	return *found, nil
}

// getJSON GETs u and decodes the JSON body into dst. Anything but a 200 with a
// JSON content type is an error.
func (c *Client) getJSON(ctx context.Context, u string, dst interface{}) error {
	sklog.Debugf("GET %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return skerr.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return skerr.Wrap(err)
	}
	defer util.Close(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return skerr.Fmt("request to %s failed. HTTP status code = %d. Response: %s", u, resp.StatusCode, httputils.ReadAndClose(resp.Body))
	}
	if ct := resp.Header.Get("Content-Type"); !jsonContentType.MatchString(ct) {
		return skerr.Fmt("unexpected content type: %q", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return skerr.Wrapf(err, "decoding response from %s", u)
	}
	return nil
}

// BuildQuery selects builds. When BuildID is set only that build is asked
// for and the other fields are ignored.
type BuildQuery struct {
	BuildID string

	Definition     int
	ResultFilter   []string
	Top            int
	RepositoryID   string
	RepositoryType string
	BranchName     string
}

// Result values accepted by LatestBuildQuery.
const (
	ResultSucceeded          = "succeeded"
	ResultPartiallySucceeded = "partiallySucceeded"
)

// LatestBuildQuery returns the query for the most recent successful build of
// the WebAssembly pipeline on main.
func LatestBuildQuery() BuildQuery {
	return BuildQuery{
		Definition:     161,
		ResultFilter:   []string{ResultSucceeded, ResultPartiallySucceeded},
		Top:            1,
		RepositoryID:   "Microsoft/onnxruntime",
		RepositoryType: "GitHub",
		BranchName:     "refs/heads/main",
	}
}

// ExplicitBuildQuery returns the query for a single build.
func ExplicitBuildQuery(buildID string) BuildQuery {
	return BuildQuery{BuildID: buildID}
}

func (q BuildQuery) values() url.Values {
	v := url.Values{}
	v.Set("api-version", BuildsAPIVersion)
	if q.BuildID != "" {
		v.Set("buildIds", q.BuildID)
		return v
	}
	if q.Definition != 0 {
		v.Set("definitions", strconv.Itoa(q.Definition))
	}
	if len(q.ResultFilter) > 0 {
		v.Set("resultFilter", strings.Join(q.ResultFilter, ","))
	}
	if q.Top > 0 {
		v.Set("$top", strconv.Itoa(q.Top))
	}
	if q.RepositoryID != "" {
		v.Set("repositoryId", q.RepositoryID)
	}
	if q.RepositoryType != "" {
		v.Set("repositoryType", q.RepositoryType)
	}
	if q.BranchName != "" {
		v.Set("branchName", q.BranchName)
	}
	return v
}

func (q BuildQuery) String() string {
	if q.BuildID != "" {
		return fmt.Sprintf("build %q", q.BuildID)
	}
	return fmt.Sprintf("definition %d on %s of %s with result in %v", q.Definition, q.BranchName, q.RepositoryID, q.ResultFilter)
}
