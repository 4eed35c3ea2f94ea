// Package extract writes selected members of an in-memory zip archive to a
// directory.
package extract

import (
	"bytes"
	"io"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"

	"github.com/ortweb/infra/go/fileutil"
	"github.com/ortweb/infra/go/skerr"
	"github.com/ortweb/infra/go/sklog"
	"github.com/ortweb/infra/go/util"
)

// DefaultFiles are the members pulled from a WebAssembly artifact: the plain
// and JSEP builds of the runtime, each with its module loader.
var DefaultFiles = []string{
	"ort-wasm-simd-threaded.wasm",
	"ort-wasm-simd-threaded.jsep.wasm",
	"ort-wasm-simd-threaded.mjs",
	"ort-wasm-simd-threaded.jsep.mjs",
}

// Extract opens body as a zip archive and writes <folder>/<file> to
// <outDir>/<file> for every file in files. outDir is created if needed.
//
// Nothing is written unless every member exists. The members are then
// extracted concurrently; every member is attempted even if another one fails,
// and all failures are returned together. A member that could not be written
// leaves no file behind.
func Extract(body []byte, folder string, files []string, outDir string) error {
	r, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return skerr.Wrapf(err, "opening archive %q", folder)
	}
	members := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		members[f.Name] = f
	}
	selected := make(map[string]*zip.File, len(files))
	for _, file := range files {
		name := path.Join(folder, file)
		member, ok := members[name]
		if !ok {
			return skerr.Fmt("could not find %q in archive: %q", name, memberNames(r))
		}
		selected[file] = member
	}
	outDir, err = fileutil.EnsureDirExists(outDir)
	if err != nil {
		return err
	}

	g := util.NewNamedErrGroup()
	for file, member := range selected {
		g.Go(file, func() error {
			return extractFile(member, filepath.Join(outDir, path.Base(file)))
		})
	}
	return skerr.Wrap(g.Wait())
}

func extractFile(member *zip.File, dst string) error {
	rc, err := member.Open()
	if err != nil {
		return skerr.Wrap(err)
	}
	defer util.Close(rc)
	var n int64
	err = util.WithWriteFile(dst, func(w io.Writer) error {
		var err error
		n, err = io.Copy(w, rc)
		return err
	})
	if err != nil {
		return skerr.Wrap(err)
	}
	sklog.Infof("# file downloaded and extracted: %s (%s)", filepath.Base(dst), humanize.Bytes(uint64(n)))
	return nil
}

func memberNames(r *zip.Reader) []string {
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}
