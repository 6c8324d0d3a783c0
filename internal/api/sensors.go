package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type SensorInfo struct {
	Id    string `json:"id"`
	Value int    `json:"value"`
}

func (s *RestService) registerSensorEndpoints(rest *echo.Echo) {
	group := rest.Group("/sensor")

	group.GET("/", s.getSensors)
	group.GET("/:"+urlParamId+"/", s.getSensor)
}

func (s *RestService) getSensors(c echo.Context) error {
	data := map[string]SensorInfo{}
	for _, sensor := range s.registry.Sensors() {
		data[sensor.GetId()] = SensorInfo{
			Id:    sensor.GetId(),
			Value: sensor.GetValue(),
		}
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (s *RestService) getSensor(c echo.Context) error {
	id := c.Param(urlParamId)
	for _, sensor := range s.registry.Sensors() {
		if sensor.GetId() == id {
			return c.JSONPretty(http.StatusOK, SensorInfo{
				Id:    sensor.GetId(),
				Value: sensor.GetValue(),
			}, indentationChar)
		}
	}
	return returnNotFound(c, id)
}
