package pullwasm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ortweb/infra/go/mockhttpclient"
	"github.com/ortweb/infra/go/testutils"
	"github.com/ortweb/infra/pullwasm/go/args"
	"github.com/ortweb/infra/pullwasm/go/extract"
)

const (
	latestBuildsURL   = "https://dev.azure.com/onnxruntime/onnxruntime/_apis/build/builds?%24top=1&api-version=6.1-preview.6&branchName=refs%2Fheads%2Fmain&definitions=161&repositoryId=Microsoft%2Fonnxruntime&repositoryType=GitHub&resultFilter=succeeded%2CpartiallySucceeded"
	explicitBuildsURL = "https://dev.azure.com/onnxruntime/onnxruntime/_apis/build/builds?api-version=6.1-preview.6&buildIds=67890"
	artifactsURLFmt   = "https://dev.azure.com/onnxruntime/onnxruntime/_apis/build/builds/%d/artifacts?api-version=6.1-preview.5"
	releaseZipURL     = "https://artprodcus3.artifacts.visualstudio.com/release.zip"
	debugZipURL       = "https://artprodcus3.artifacts.visualstudio.com/debug.zip"
)

const artifactList = `{"count":2,"value":[
  {"id":1,"name":"Release_wasm","resource":{"type":"Container","downloadUrl":"` + releaseZipURL + `"}},
  {"id":2,"name":"Debug_wasm","resource":{"type":"Container","downloadUrl":"` + debugZipURL + `"}}
]}`

func buildList(id int64) []byte {
	return []byte(fmt.Sprintf(`{"count":1,"value":[{"id":%d,"result":"succeeded"}]}`, id))
}

func artifactZip(t *testing.T, folder string) []byte {
	entries := map[string]string{}
	for _, f := range extract.DefaultFiles {
		entries[folder+"/"+f] = f + " from " + folder
	}
	return testutils.ZipArchive(t, entries)
}

func testOptions(t *testing.T) Options {
	opts := DefaultOptions()
	opts.OutDir = filepath.Join(t.TempDir(), "dist")
	return opts
}

func requireExtracted(t *testing.T, outDir, folder string) {
	for _, f := range extract.DefaultFiles {
		b, err := os.ReadFile(filepath.Join(outDir, f))
		require.NoError(t, err)
		require.Equal(t, f+" from "+folder, string(b))
	}
}

func TestRun_LatestRelease_DownloadsArtifactOfFoundBuild(t *testing.T) {
	m := mockhttpclient.NewURLMock()
	m.Mock(latestBuildsURL, mockhttpclient.MockGetDialogue("application/json; charset=utf-8", buildList(42)))
	m.Mock(fmt.Sprintf(artifactsURLFmt, 42), mockhttpclient.MockGetDialogue("application/json", []byte(artifactList)))
	m.Mock(releaseZipURL, mockhttpclient.MockGetDialogue("application/zip", artifactZip(t, "Release_wasm")))

	opts := testOptions(t)
	err := New(m.Client(), opts).Run(context.Background(), args.Parse(nil))
	require.NoError(t, err)

	require.Equal(t, []string{latestBuildsURL, fmt.Sprintf(artifactsURLFmt, 42), releaseZipURL}, m.Requests())
	requireExtracted(t, opts.OutDir, "Release_wasm")
}

func TestRun_DebugWithBuildID_FiltersByIDAndUsesDebugArtifact(t *testing.T) {
	m := mockhttpclient.NewURLMock()
	m.Mock(explicitBuildsURL, mockhttpclient.MockGetDialogue("application/json", buildList(67890)))
	m.Mock(fmt.Sprintf(artifactsURLFmt, 67890), mockhttpclient.MockGetDialogue("application/json", []byte(artifactList)))
	m.Mock(debugZipURL, mockhttpclient.MockGetDialogue("application/zip", artifactZip(t, "Debug_wasm")))

	opts := testOptions(t)
	err := New(m.Client(), opts).Run(context.Background(), args.Parse([]string{"debug", "67890"}))
	require.NoError(t, err)

	require.Equal(t, []string{explicitBuildsURL, fmt.Sprintf(artifactsURLFmt, 67890), debugZipURL}, m.Requests())
	requireExtracted(t, opts.OutDir, "Debug_wasm")
}

func TestRun_NoMatchingArtifact_StopsBeforeDownload(t *testing.T) {
	m := mockhttpclient.NewURLMock()
	m.Mock(latestBuildsURL, mockhttpclient.MockGetDialogue("application/json", buildList(42)))
	m.Mock(fmt.Sprintf(artifactsURLFmt, 42), mockhttpclient.MockGetDialogue("application/json",
		[]byte(`{"count":1,"value":[{"id":1,"name":"Debug_wasm","resource":{"downloadUrl":"`+debugZipURL+`"}}]}`)))

	opts := testOptions(t)
	err := New(m.Client(), opts).Run(context.Background(), args.Parse(nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), `no artifact named "Release_wasm"`)
	require.Contains(t, err.Error(), "Debug_wasm")

	require.Equal(t, []string{latestBuildsURL, fmt.Sprintf(artifactsURLFmt, 42)}, m.Requests())
	_, err = os.Stat(opts.OutDir)
	require.True(t, os.IsNotExist(err))
}

func TestRun_NoBuild_ReturnsError(t *testing.T) {
	m := mockhttpclient.NewURLMock()
	m.Mock(explicitBuildsURL, mockhttpclient.MockGetDialogue("application/json", []byte(`{"count":0,"value":[]}`)))

	err := New(m.Client(), testOptions(t)).Run(context.Background(), args.Parse([]string{"67890"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no build found")
	require.Len(t, m.Requests(), 1)
}

func TestRun_DownloadFails_ReturnsErrorAndWritesNothing(t *testing.T) {
	m := mockhttpclient.NewURLMock()
	m.Mock(latestBuildsURL, mockhttpclient.MockGetDialogue("application/json", buildList(42)))
	m.Mock(fmt.Sprintf(artifactsURLFmt, 42), mockhttpclient.MockGetDialogue("application/json", []byte(artifactList)))
	m.Mock(releaseZipURL, mockhttpclient.MockGetError(404, "gone"))

	opts := testOptions(t)
	err := New(m.Client(), opts).Run(context.Background(), args.Parse([]string{"release"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP status code = 404")
	_, err = os.Stat(opts.OutDir)
	require.True(t, os.IsNotExist(err))
}

func TestLocateBuild_CustomLatestQuery(t *testing.T) {
	m := mockhttpclient.NewURLMock()
	opts := testOptions(t)
	opts.LatestQuery.Definition = 7
	opts.LatestQuery.BranchName = "refs/heads/rel-1.20"
	u := "https://dev.azure.com/onnxruntime/onnxruntime/_apis/build/builds?%24top=1&api-version=6.1-preview.6&branchName=refs%2Fheads%2Frel-1.20&definitions=7&repositoryId=Microsoft%2Fonnxruntime&repositoryType=GitHub&resultFilter=succeeded%2CpartiallySucceeded"
	m.Mock(u, mockhttpclient.MockGetDialogue("application/json", buildList(3)))

	b, err := New(m.Client(), opts).LocateBuild(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, int64(3), b.ID)
}

func TestShortBranch(t *testing.T) {
	require.Equal(t, "main", shortBranch("refs/heads/main"))
	require.Equal(t, "topic", shortBranch("topic"))
}
