package download

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ortweb/infra/go/mockhttpclient"
)

func TestZip_HappyPath_ReturnsBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, err := w.Write([]byte("PK\x03\x04 not really a zip"))
		require.NoError(t, err)
	}))
	defer ts.Close()

	b, err := Zip(context.Background(), ts.Client(), ts.URL+"/release.zip", "Release_wasm")
	require.NoError(t, err)
	require.Equal(t, "PK\x03\x04 not really a zip", string(b))
}

func TestZip_Non200_ReturnsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := Zip(context.Background(), ts.Client(), ts.URL, "Release_wasm")
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP status code = 404")
}

func TestZip_WrongContentType_ReturnsError(t *testing.T) {
	m := mockhttpclient.NewURLMock()
	m.Mock("https://example.com/release.zip", mockhttpclient.MockGetDialogue("application/json", []byte("{}")))

	_, err := Zip(context.Background(), m.Client(), "https://example.com/release.zip", "Release_wasm")
	require.Error(t, err)
	require.Contains(t, err.Error(), `unexpected content type: "application/json"`)
}

func TestZip_EmptyURL_NoRequest(t *testing.T) {
	m := mockhttpclient.NewURLMock()
	_, err := Zip(context.Background(), m.Client(), "", "Release_wasm")
	require.Error(t, err)
	require.Contains(t, err.Error(), `no download URL for "Release_wasm"`)
	require.Empty(t, m.Requests())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestZip_HugeClaimedContentLength_ReadsActualBody(t *testing.T) {
	c := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode:    http.StatusOK,
			Header:        http.Header{"Content-Type": []string{"application/zip"}},
			Body:          io.NopCloser(strings.NewReader("PK\x03\x04")),
			ContentLength: 1 << 50,
			Request:       r,
		}, nil
	})}

	b, err := Zip(context.Background(), c, "https://example.com/release.zip", "Release_wasm")
	require.NoError(t, err)
	require.Equal(t, "PK\x03\x04", string(b))
}
