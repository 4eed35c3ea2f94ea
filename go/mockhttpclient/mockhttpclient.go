package mockhttpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// MockDialogue is a canned response for a GET request.
type MockDialogue struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// MockGetDialogue returns a 200 response with the given body and content type.
func MockGetDialogue(contentType string, body []byte) MockDialogue {
	return MockDialogue{
		StatusCode:  http.StatusOK,
		ContentType: contentType,
		Body:        body,
	}
}

// MockGetError returns a response with the given status code and body.
func MockGetError(statusCode int, body string) MockDialogue {
	return MockDialogue{
		StatusCode:  statusCode,
		ContentType: "text/plain",
		Body:        []byte(body),
	}
}

// URLMock implements http.RoundTripper but returns mocked responses. It
// provides two methods for mocking responses to requests for particular URLs:
//
//   - Mock: Adds a fake response for the given URL to be used every time a
//     request is made for that URL.
//
//   - MockOnce: Adds a fake response for the given URL to be used one time.
//     MockOnce may be called multiple times for the same URL in order to
//     simulate the response changing over time. Takes precedence over mocks
//     specified using Mock.
//
// Every request is recorded, whether or not a response was mocked for it.
//
// Examples:
//
//	m := NewURLMock()
//	m.Mock("https://dev.azure.com/org/proj/_apis/build/builds?buildIds=42",
//		MockGetDialogue("application/json", []byte(`{"value":[{"id":42}]}`)))
//	res, _ := m.Client().Get("https://dev.azure.com/org/proj/_apis/build/builds?buildIds=42")
type URLMock struct {
	mtx        sync.Mutex
	mockAlways map[string]MockDialogue
	mockOnce   map[string][]MockDialogue
	requests   []string
}

// Mock adds a mocked response for the given URL; whenever this URLMock is used
// as a transport for an http.Client, requests to the given URL will always
// receive the given response. Mocks specified using Mock() are independent of
// those specified MockOnce(), except that those specified using MockOnce()
// take precedence when present.
func (m *URLMock) Mock(url string, md MockDialogue) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.mockAlways[url] = md
}

// MockOnce adds a mocked response for the given URL, to be used exactly once.
// Mocks are stored in a FIFO queue and removed from the queue as they are
// requested.
func (m *URLMock) MockOnce(url string, md MockDialogue) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.mockOnce[url] = append(m.mockOnce[url], md)
}

// Client returns an http.Client instance which uses the URLMock.
func (m *URLMock) Client() *http.Client {
	return &http.Client{
		Transport: m,
	}
}

// RoundTrip is an implementation of http.RoundTripper.RoundTrip. It fakes
// responses for requests to URLs based on past calls to Mock() and MockOnce().
func (m *URLMock) RoundTrip(r *http.Request) (*http.Response, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	url := r.URL.String()
	m.requests = append(m.requests, url)
	var md *MockDialogue
	if resps, ok := m.mockOnce[url]; ok && len(resps) > 0 {
		md = &resps[0]
		m.mockOnce[url] = resps[1:]
	} else if data, ok := m.mockAlways[url]; ok {
		md = &data
	}
	if md == nil {
		return nil, fmt.Errorf("Unknown URL %q", url)
	}
	header := http.Header{}
	if md.ContentType != "" {
		header.Set("Content-Type", md.ContentType)
	}
	return &http.Response{
		Body:          io.NopCloser(bytes.NewReader(md.Body)),
		Status:        http.StatusText(md.StatusCode),
		StatusCode:    md.StatusCode,
		Header:        header,
		ContentLength: int64(len(md.Body)),
		Request:       r,
	}, nil
}

// Requests returns the URLs of all requests made so far, in order.
func (m *URLMock) Requests() []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]string(nil), m.requests...)
}

// Empty returns true iff all of the URLs registered via MockOnce() have been
// used.
func (m *URLMock) Empty() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for _, resps := range m.mockOnce {
		if len(resps) > 0 {
			return false
		}
	}
	return true
}

// NewURLMock returns an empty URLMock instance.
func NewURLMock() *URLMock {
	return &URLMock{
		mockAlways: map[string]MockDialogue{},
		mockOnce:   map[string][]MockDialogue{},
	}
}
