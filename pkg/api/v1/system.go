package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fngate/fngate/pkg/queue"
)

// SystemGroup exposes operator introspection endpoints
type SystemGroup struct {
	routerGroup *echo.Group
	producer    queue.Producer
}

func NewSystemGroup(g *echo.Group, producer queue.Producer) *SystemGroup {
	group := &SystemGroup{routerGroup: g, producer: producer}

	g.GET("/queue", group.QueueDepth)

	return group
}

// QueueDepth reports pending and in-flight async invocation counts
func (s *SystemGroup) QueueDepth(c echo.Context) error {
	if s.producer == nil {
		return ErrorResponse(c, http.StatusServiceUnavailable, "queue is disabled")
	}

	ctx := c.Request().Context()

	pending, err := s.producer.Len(ctx)
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "failed to read queue depth")
	}

	inFlight, err := s.producer.InFlightCount(ctx)
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "failed to read in-flight count")
	}

	return SuccessResponse(c, map[string]int64{
		"pending":   pending,
		"in_flight": inFlight,
	})
}
