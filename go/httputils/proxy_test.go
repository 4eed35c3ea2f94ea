package httputils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func envFromMap(m map[string]string) func(string) string {
	return func(key string) string {
		return m[key]
	}
}

func TestProxyConfigFromEnvironment_GlobalAgentWins(t *testing.T) {
	cfg := ProxyConfigFromEnvironment(envFromMap(map[string]string{
		GlobalAgentHTTPSProxyEnv: "http://agent-proxy:3128",
		"HTTPS_PROXY":            "http://std-proxy:3128",
		"http_proxy":             "http://lower-proxy:8080",
		GlobalAgentNoProxyEnv:    "localhost",
	}))
	require.Equal(t, "http://agent-proxy:3128", cfg.HTTPSProxy)
	require.Equal(t, "http://lower-proxy:8080", cfg.HTTPProxy)
	require.Equal(t, "localhost", cfg.NoProxy)
	require.False(t, cfg.CGI)
}

func TestProxyConfigFromEnvironment_Empty(t *testing.T) {
	cfg := ProxyConfigFromEnvironment(envFromMap(nil))
	require.Empty(t, cfg.HTTPProxy)
	require.Empty(t, cfg.HTTPSProxy)
	require.Empty(t, cfg.NoProxy)
}
