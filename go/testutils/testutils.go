// Convenience utilities for testing.
package testutils

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/stretchr/testify/require"
)

// TestDataDir returns the path to the caller's testdata directory, which
// is assumed to be "<path to caller dir>/testdata".
func TestDataDir() (string, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("Could not find test data dir: runtime.Caller() failed.")
	}
	for skip := 0; ; skip++ {
		_, file, _, ok := runtime.Caller(skip)
		if !ok {
			return "", fmt.Errorf("Could not find test data dir: runtime.Caller() failed.")
		}
		if file != thisFile {
			return filepath.Join(filepath.Dir(file), "testdata"), nil
		}
	}
}

// ReadFile reads a file from the caller's testdata directory.
func ReadFile(filename string) (string, error) {
	dir, err := TestDataDir()
	if err != nil {
		return "", fmt.Errorf("Could not read %s: %v", filename, err)
	}
	b, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("Could not read %s: %v", filename, err)
	}
	return string(b), nil
}

// MustReadFile reads a file from the caller's testdata directory and panics on
// error.
func MustReadFile(filename string) string {
	s, err := ReadFile(filename)
	if err != nil {
		panic(err)
	}
	return s
}

// ZipArchive returns an in-memory zip archive holding the given
// name -> content entries, added in name order.
func ZipArchive(t require.TestingT, entries map[string]string) []byte {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	for _, name := range names {
		fw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return b.Bytes()
}
