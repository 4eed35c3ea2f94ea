package sklog

import (
	"bytes"
	"os"
	"testing"

	"github.com/ortweb/infra/go/sklog/stdlogging"
	"github.com/stretchr/testify/require"
)

type fauxSyncWriter struct {
	b bytes.Buffer
}

func (f *fauxSyncWriter) Write(p []byte) (n int, err error) {
	return f.b.Write(p)
}

func (f *fauxSyncWriter) Sync() error {
	return nil
}

func captureLogs(t *testing.T) *fauxSyncWriter {
	w := &fauxSyncWriter{}
	SetLogger(stdlogging.New(w))
	t.Cleanup(func() {
		SetLogger(stdlogging.New(os.Stderr))
		SetVerbose(false)
	})
	return w
}

func TestInfof_WritesFormattedLine(t *testing.T) {
	w := captureLogs(t)
	Infof("=== Found latest build on main branch: %d ===", 42)
	require.Contains(t, w.b.String(), "=== Found latest build on main branch: 42 ===")
}

func TestDebugf_OnlyWhenVerbose(t *testing.T) {
	w := captureLogs(t)
	Debugf("GET %s", "https://example.com/quiet")
	require.NotContains(t, w.b.String(), "example.com/quiet")

	SetVerbose(true)
	Debugf("GET %s", "https://example.com/loud")
	require.Contains(t, w.b.String(), "example.com/loud")
}

func TestWarningf_WrittenWithoutVerbose(t *testing.T) {
	w := captureLogs(t)
	Warningf("retrying %s", "builds")
	require.Contains(t, w.b.String(), "retrying builds")
}
