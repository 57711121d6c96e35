package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fngate/fngate/pkg/types"
)

const (
	defaultUpstreamScheme  = "http"
	defaultUpstreamPort    = 8080
	defaultUpstreamTimeout = 60 * time.Second

	copyBufferSize = 32 * 1024
)

// Connection headers are stripped before crossing the proxy boundary
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Resolver maps a function key to a reachable instance base URL
type Resolver func(key types.FunctionKey) string

// Proxy relays an admitted request to a ready function instance and streams
// the response back to the caller. Invocations are not assumed idempotent, so
// the proxy never retries.
type Proxy struct {
	config  types.UpstreamConfig
	client  *http.Client
	resolve Resolver
}

// NewProxy creates a forwarding proxy with the default DNS-based resolver
// (http://{name}.{namespace}:{port})
func NewProxy(config types.UpstreamConfig) *Proxy {
	if config.Scheme == "" {
		config.Scheme = defaultUpstreamScheme
	}
	if config.Port == 0 {
		config.Port = defaultUpstreamPort
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultUpstreamTimeout
	}

	p := &Proxy{
		config: config,
		client: &http.Client{
			// No client-level timeout: long-lived streaming responses are
			// bounded per request via context
			Transport: &http.Transport{
				MaxIdleConns:        1024,
				MaxIdleConnsPerHost: 128,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	p.resolve = func(key types.FunctionKey) string {
		return fmt.Sprintf("%s://%s.%s:%d", config.Scheme, key.Name, key.Namespace, config.Port)
	}

	return p
}

// WithResolver overrides instance address resolution (used by tests)
func (p *Proxy) WithResolver(resolve Resolver) *Proxy {
	p.resolve = resolve
	return p
}

// Forward relays the inbound request to the function instance and writes the
// upstream response verbatim to w, streaming the body as it arrives
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request, key types.FunctionKey, path string) error {
	ctx, cancel := context.WithTimeout(r.Context(), p.config.Timeout)
	defer cancel()

	target := p.resolve(key) + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	upstream, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return err
	}

	copyHeaders(upstream.Header, r.Header)
	upstream.Header.Set("X-Forwarded-Host", r.Host)
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		upstream.Header.Set("X-Forwarded-For", host)
	}

	start := time.Now()
	resp, err := p.client.Do(upstream)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}

		log.Error().
			Str("function", key.String()).
			Str("method", r.Method).
			Err(err).
			Msg("upstream request failed")

		http.Error(w, http.StatusText(status), status)
		return nil
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	if err := streamBody(w, resp.Body); err != nil {
		// Headers are already written; nothing to do but drop the connection
		log.Warn().Str("function", key.String()).Err(err).Msg("response stream interrupted")
		return nil
	}

	log.Debug().
		Str("function", key.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("forwarded invocation")

	return nil
}

// streamBody copies the upstream body to the client, flushing after each chunk
// so chunked and event-stream responses are relayed as they are produced
func streamBody(w http.ResponseWriter, body io.Reader) error {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, copyBufferSize)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		dst[name] = append([]string(nil), values...)
	}
	for _, name := range hopHeaders {
		dst.Del(name)
	}
}
