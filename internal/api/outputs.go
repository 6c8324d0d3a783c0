package api

import (
	"net/http"

	"github.com/fanctrl/fanctrl/internal/outputs"
	"github.com/labstack/echo/v4"
)

type OutputInfo struct {
	Id        string `json:"id"`
	State     string `json:"state"`
	Pwm       int    `json:"pwm"`
	LastValue int    `json:"lastValue"`
	Target    int    `json:"target"`
}

func (s *RestService) registerOutputEndpoints(rest *echo.Echo) {
	group := rest.Group("/output")

	group.GET("/", s.getOutputs)
	group.GET("/:"+urlParamId+"/", s.getOutput)
}

func (s *RestService) getOutputs(c echo.Context) error {
	data := map[string]OutputInfo{}
	for _, output := range s.registry.Outputs() {
		data[output.GetId()] = outputInfo(output)
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (s *RestService) getOutput(c echo.Context) error {
	id := c.Param(urlParamId)
	for _, output := range s.registry.Outputs() {
		if output.GetId() == id {
			return c.JSONPretty(http.StatusOK, outputInfo(output), indentationChar)
		}
	}
	return returnNotFound(c, id)
}

func outputInfo(output *outputs.PWMOutput) OutputInfo {
	return OutputInfo{
		Id:        output.GetId(),
		State:     output.GetState().String(),
		Pwm:       output.GetValue(),
		LastValue: output.GetLastValue(),
		Target:    output.GetTarget(),
	}
}
