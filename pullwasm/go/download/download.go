// Package download fetches artifact zip archives into memory.
package download

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"

	"github.com/dustin/go-humanize"

	"github.com/ortweb/infra/go/httputils"
	"github.com/ortweb/infra/go/httputils/progress"
	"github.com/ortweb/infra/go/skerr"
	"github.com/ortweb/infra/go/sklog"
	"github.com/ortweb/infra/go/util"
)

var zipContentType = regexp.MustCompile(`^application/zip`)

// maxPrealloc caps the buffer reserved up front from the Content-Length the
// server claims. Larger archives grow the buffer as they are read.
const maxPrealloc int64 = 64 << 20

// Zip downloads the archive at downloadURL and returns its full contents. The
// response must be a 200 with a zip content type. name is only used in log
// lines.
func Zip(ctx context.Context, client *http.Client, downloadURL, name string) ([]byte, error) {
	if downloadURL == "" {
		return nil, skerr.Fmt("no download URL for %q", name)
	}
	sklog.Debugf("GET %s", downloadURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, skerr.Wrap(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, skerr.Wrapf(err, "downloading %q", name)
	}
	defer util.Close(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, skerr.Fmt("failed to download %q. HTTP status code = %d. Response: %s", name, resp.StatusCode, httputils.ReadAndClose(resp.Body))
	}
	if ct := resp.Header.Get("Content-Type"); !zipContentType.MatchString(ct) {
		return nil, skerr.Fmt("unexpected content type: %q", ct)
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(min(resp.ContentLength, maxPrealloc)))
	}
	r := progress.NewReader(resp.Body, name, resp.ContentLength, progress.DefaultInterval)
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, skerr.Wrapf(err, "reading %q after %s", name, humanize.Bytes(uint64(r.Count())))
	}
	sklog.Infof("Downloaded %s (%s)", name, humanize.Bytes(uint64(buf.Len())))
	return buf.Bytes(), nil
}
