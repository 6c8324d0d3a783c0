package api

import (
	"net/http"

	"github.com/fanctrl/fanctrl/internal/fans"
	"github.com/labstack/echo/v4"
)

type FanInfo struct {
	Id  string `json:"id"`
	Pwm int    `json:"pwm"`
	Rpm int    `json:"rpm"`

	Temp   int `json:"temp"`
	Target int `json:"target"`

	PwmMin   int `json:"pwmMin"`
	PwmMax   int `json:"pwmMax"`
	PwmStart int `json:"pwmStart"`
	PwmStop  int `json:"pwmStop"`

	SensorMin int `json:"sensorMin"`
	SensorMax int `json:"sensorMax"`
}

func (s *RestService) registerFanEndpoints(rest *echo.Echo) {
	group := rest.Group("/fan")

	group.GET("/", s.getFans)
	group.GET("/:"+urlParamId+"/", s.getFan)
}

// returns a list of all currently configured fans
func (s *RestService) getFans(c echo.Context) error {
	data := map[string]FanInfo{}
	for _, fan := range s.fans {
		data[fan.GetId()] = fanInfo(fan)
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (s *RestService) getFan(c echo.Context) error {
	id := c.Param(urlParamId)
	for _, fan := range s.fans {
		if fan.GetId() == id {
			return c.JSONPretty(http.StatusOK, fanInfo(fan), indentationChar)
		}
	}
	return returnNotFound(c, id)
}

func fanInfo(fan *fans.Fan) FanInfo {
	temp := fan.Sensor.GetValue()
	return FanInfo{
		Id:        fan.GetId(),
		Pwm:       fan.Device.GetValue(),
		Rpm:       fan.Tach.GetValue(),
		Temp:      temp,
		Target:    fan.TargetFor(temp),
		PwmMin:    fan.PwmMin,
		PwmMax:    fan.PwmMax,
		PwmStart:  fan.PwmStart,
		PwmStop:   fan.PwmStop,
		SensorMin: fan.SensorMin,
		SensorMax: fan.SensorMax,
	}
}
