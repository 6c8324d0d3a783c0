package api

import (
	"net/http"

	"github.com/fanctrl/fanctrl/internal/fans"
	"github.com/fanctrl/fanctrl/internal/registry"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	urlParamId      = "id"
	indentationChar = "  "
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
)

// RestService exposes the daemon's runtime state over HTTP. It is
// read-only, every mutation goes through the configuration file.
type RestService struct {
	registry *registry.Registry
	fans     []*fans.Fan
}

func NewRestService(registry *registry.Registry, fanList []*fans.Fan) *RestService {
	return &RestService{
		registry: registry,
		fans:     fanList,
	}
}

func (s *RestService) CreateWebserver() *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())
	echoRest.Use(middleware.Logger())
	echoRest.Use(middleware.Recover())
	echoRest.Use(echoprometheus.NewMiddleware("fanctrl_api"))

	echoRest.GET("/alive/", isAlive)

	s.registerFanEndpoints(echoRest)
	s.registerSensorEndpoints(echoRest)
	s.registerOutputEndpoints(echoRest)

	return echoRest
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with id '" + id + "' found",
	}, indentationChar)
}
