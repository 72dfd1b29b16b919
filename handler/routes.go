package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/labstack/echo/v4"
)

const maxBodyBytes = 1 << 20

// RegisterRoutes exposes the receiver over plain HTTP for local runs.
func RegisterRoutes(e *echo.Echo, r *Receiver) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.POST("/slack/events", r.ServeEcho)
}

// ServeEcho adapts an HTTP request into the API Gateway shape Handle expects.
func (r *Receiver) ServeEcho(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}

	resp, err := r.Handle(req.Context(), events.APIGatewayV2HTTPRequest{
		RawPath: req.URL.Path,
		Headers: headers,
		Body:    string(body),
	})
	if err != nil {
		return err
	}
	for k, v := range resp.Headers {
		c.Response().Header().Set(k, v)
	}
	if resp.Body == "" {
		return c.NoContent(resp.StatusCode)
	}
	return c.Blob(resp.StatusCode, echo.MIMEApplicationJSON, []byte(resp.Body))
}
