package httputils

import (
	"net/http"
	"net/url"
	"os"

	"golang.org/x/net/http/httpproxy"
)

// Environment variables read by ProxyFromEnvironment, on top of the standard
// HTTP_PROXY, HTTPS_PROXY and NO_PROXY (and their lowercase forms). The
// GLOBAL_AGENT_ prefixed ones win, so a proxy can be set for this tool
// without affecting every other program in the shell.
const (
	GlobalAgentHTTPProxyEnv  = "GLOBAL_AGENT_HTTP_PROXY"
	GlobalAgentHTTPSProxyEnv = "GLOBAL_AGENT_HTTPS_PROXY"
	GlobalAgentNoProxyEnv    = "GLOBAL_AGENT_NO_PROXY"
)

// ProxyConfigFromEnvironment reads the proxy configuration from the
// environment using getenv, which is usually os.Getenv.
func ProxyConfigFromEnvironment(getenv func(string) string) *httpproxy.Config {
	cfg := &httpproxy.Config{
		HTTPProxy:  firstNonEmpty(getenv, GlobalAgentHTTPProxyEnv, "HTTP_PROXY", "http_proxy"),
		HTTPSProxy: firstNonEmpty(getenv, GlobalAgentHTTPSProxyEnv, "HTTPS_PROXY", "https_proxy"),
		NoProxy:    firstNonEmpty(getenv, GlobalAgentNoProxyEnv, "NO_PROXY", "no_proxy"),
		CGI:        getenv("REQUEST_METHOD") != "",
	}
	return cfg
}

// ProxyFromEnvironment returns a ProxyFunc configured from the process
// environment. It is evaluated once, so call it after any .env file has been
// loaded.
func ProxyFromEnvironment() ProxyFunc {
	return NewProxyFunc(ProxyConfigFromEnvironment(os.Getenv))
}

// NewProxyFunc adapts an httpproxy.Config to a ProxyFunc.
func NewProxyFunc(cfg *httpproxy.Config) ProxyFunc {
	proxyForURL := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxyForURL(req.URL)
	}
}

func firstNonEmpty(getenv func(string) string, keys ...string) string {
	for _, k := range keys {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}
