package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fngate/fngate/pkg/types"
)

func newProxyForTest(target string, timeout time.Duration) *Proxy {
	p := NewProxy(types.UpstreamConfig{Timeout: timeout})
	return p.WithResolver(func(key types.FunctionKey) string {
		return target
	})
}

func TestForwardRelaysResponseVerbatim(t *testing.T) {
	var receivedBody []byte
	var receivedPath string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedBody, _ = io.ReadAll(r.Body)
		receivedPath = r.URL.Path

		w.Header().Set("X-Function-Output", "figlet")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("function says hi"))
	}))
	defer upstream.Close()

	p := newProxyForTest(upstream.URL, 5*time.Second)

	req := httptest.NewRequest(http.MethodPost, "/function/figlet/greet?x=1", strings.NewReader("hello"))
	rec := httptest.NewRecorder()

	key := types.FunctionKey{Name: "figlet", Namespace: "fngate-fn"}
	require.NoError(t, p.Forward(rec, req, key, "/greet"))

	assert.Equal(t, []byte("hello"), receivedBody)
	assert.Equal(t, "/greet", receivedPath)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "figlet", rec.Header().Get("X-Function-Output"))
	assert.Equal(t, "function says hi", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestForwardPropagatesQueryString(t *testing.T) {
	var receivedQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedQuery = r.URL.RawQuery
	}))
	defer upstream.Close()

	p := newProxyForTest(upstream.URL, 5*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/function/figlet?lang=en&n=3", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, p.Forward(rec, req, types.FunctionKey{Name: "figlet", Namespace: "fngate-fn"}, "/"))
	assert.Equal(t, "lang=en&n=3", receivedQuery)
}

func TestForwardStripsHopHeaders(t *testing.T) {
	var receivedHeaders http.Header
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header.Clone()
	}))
	defer upstream.Close()

	p := newProxyForTest(upstream.URL, 5*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/function/figlet", nil)
	req.Header.Set("Te", "trailers")
	req.Header.Set("X-Custom", "kept")
	rec := httptest.NewRecorder()

	require.NoError(t, p.Forward(rec, req, types.FunctionKey{Name: "figlet", Namespace: "fngate-fn"}, "/"))

	assert.Empty(t, receivedHeaders.Get("Te"))
	assert.Equal(t, "kept", receivedHeaders.Get("X-Custom"))
}

func TestForwardReturnsBadGatewayOnNetworkFailure(t *testing.T) {
	// Point at a server that is no longer listening
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := upstream.URL
	upstream.Close()

	p := newProxyForTest(target, 5*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/function/figlet", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, p.Forward(rec, req, types.FunctionKey{Name: "figlet", Namespace: "fngate-fn"}, "/"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestForwardReturnsGatewayTimeoutOnSlowUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer upstream.Close()

	p := newProxyForTest(upstream.URL, 50*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/function/slow", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, p.Forward(rec, req, types.FunctionKey{Name: "slow", Namespace: "fngate-fn"}, "/"))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestDefaultResolverUsesFunctionDNS(t *testing.T) {
	p := NewProxy(types.UpstreamConfig{Scheme: "http", Port: 8080})

	addr := p.resolve(types.FunctionKey{Name: "figlet", Namespace: "fngate-fn"})
	assert.Equal(t, "http://figlet.fngate-fn:8080", addr)
}
