package apiv1

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/fngate/fngate/pkg/proxy"
	"github.com/fngate/fngate/pkg/queue"
	"github.com/fngate/fngate/pkg/scaling"
	"github.com/fngate/fngate/pkg/types"
)

const callbackURLHeader = "X-Callback-Url"

// InvokeGroup dispatches inbound invocations: admission through the scaler,
// then either the synchronous forwarding path or the async queue path
type InvokeGroup struct {
	config   types.AppConfig
	scaler   *scaling.Scaler
	proxy    *proxy.Proxy
	producer queue.Producer
}

func NewInvokeGroup(e *echo.Echo, config types.AppConfig, scaler *scaling.Scaler, fnProxy *proxy.Proxy, producer queue.Producer) *InvokeGroup {
	group := &InvokeGroup{
		config:   config,
		scaler:   scaler,
		proxy:    fnProxy,
		producer: producer,
	}

	e.Any("/function/:name", group.InvokeSync)
	e.Any("/function/:name/*", group.InvokeSync)
	e.Any("/async-function/:name", group.InvokeAsync)
	e.Any("/async-function/:name/*", group.InvokeAsync)

	return group
}

// InvokeSync admits the request and relays it to a ready instance, streaming
// the response back verbatim
func (g *InvokeGroup) InvokeSync(c echo.Context) error {
	key := g.functionKey(c.Param("name"))

	result := g.scaler.Scale(c.Request().Context(), key)
	if err := admissionError(result); err != nil {
		return err
	}

	return g.proxy.Forward(c.Response(), c.Request(), key, upstreamPath(c))
}

// InvokeAsync captures the request as an invocation message, enqueues it, and
// acknowledges immediately with 202
func (g *InvokeGroup) InvokeAsync(c echo.Context) error {
	if g.producer == nil {
		return HTTPInternalServerError("async invocations are disabled")
	}

	key := g.functionKey(c.Param("name"))

	if g.config.Scaling.GateAsync {
		result := g.scaler.Scale(c.Request().Context(), key)
		if err := admissionError(result); err != nil {
			return err
		}
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HTTPBadRequest("failed to read request body")
	}

	msg := &types.InvocationMessage{
		ID:          uuid.New().String(),
		Function:    key,
		Method:      c.Request().Method,
		Path:        upstreamPath(c),
		QueryString: c.QueryString(),
		Headers:     c.Request().Header.Clone(),
		Body:        body,
		Host:        c.Request().Host,
		CallbackURL: c.Request().Header.Get(callbackURLHeader),
		EnqueuedAt:  time.Now(),
	}

	if err := g.producer.Enqueue(c.Request().Context(), msg); err != nil {
		log.Error().Str("function", key.String()).Err(err).Msg("failed to enqueue invocation")
		return HTTPInternalServerError("failed to enqueue invocation")
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"id": msg.ID,
	})
}

// functionKey resolves "name" or "name.namespace" against the configured
// default namespace
func (g *InvokeGroup) functionKey(raw string) types.FunctionKey {
	name, namespace, found := strings.Cut(raw, ".")
	if !found || namespace == "" {
		namespace = g.config.Scaling.DefaultNamespace
	}

	return types.FunctionKey{Name: name, Namespace: namespace}
}

// upstreamPath returns the path to forward to the function instance
func upstreamPath(c echo.Context) string {
	return "/" + c.Param("*")
}

// admissionError maps a scale result to the inbound HTTP contract:
// unknown function 404, admission timeout 504, provider failure 502
func admissionError(result types.ScaleResult) error {
	if result.Err == nil && result.Available {
		return nil
	}

	if !result.Found {
		return HTTPNotFound()
	}

	timeout := &types.ErrScaleTimeout{}
	if timeout.From(result.Err) {
		return HTTPGatewayTimeout("function did not become ready in time")
	}

	return HTTPBadGateway("unable to reach workload controller")
}
