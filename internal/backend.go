package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fanctrl/fanctrl/internal/api"
	"github.com/fanctrl/fanctrl/internal/configuration"
	"github.com/fanctrl/fanctrl/internal/controller"
	"github.com/fanctrl/fanctrl/internal/fans"
	"github.com/fanctrl/fanctrl/internal/hwmon"
	"github.com/fanctrl/fanctrl/internal/registry"
	"github.com/fanctrl/fanctrl/internal/statistics"
	"github.com/fanctrl/fanctrl/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RunDaemon() {
	if getProcessOwner() != "root" {
		ui.Fatal("Fan control requires root permissions to be able to modify fan speeds, please run fanctrl as root")
	}

	config := configuration.CurrentConfig
	if err := hwmon.VerifyIdentity(config.BasePath(), config.DevName, config.DevPath); err != nil {
		ui.FatalWithoutStacktrace("Device identity check failed: %v", err)
	}

	reg, fanList := InitializeObjects()
	ctrl := controller.NewController(config.Delay, reg.Sensors(), fanList, reg.Outputs())

	statistics.Register(statistics.NewSensorCollector(reg.Sensors()))
	statistics.Register(statistics.NewFanCollector(fanList))
	statistics.Register(statistics.NewOutputCollector(reg.Outputs()))
	statistics.Register(statistics.NewControllerCollector(ctrl))

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		// === main control loop
		g.Add(func() error {
			err := ctrl.Run(ctx)
			ui.Info("Controller stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error running controller: %v", err)
			}
			cancel()
		})
	}
	{
		enabled := configuration.CurrentConfig.Statistics.Enabled
		if enabled {
			// === Prometheus Exporter
			g.Add(func() error {
				port := configuration.CurrentConfig.Statistics.Port
				if port <= 0 || port >= 65535 {
					port = 9000
				}
				endpoint := "/metrics"
				addr := fmt.Sprintf(":%d", port)
				handler := promhttp.Handler()
				http.Handle(endpoint, handler)
				server := &http.Server{Addr: addr, Handler: handler}
				if err := server.ListenAndServe(); err != nil {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
				}

				<-ctx.Done()
				ui.Info("Stopping statistics server...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				return server.Shutdown(timeoutCtx)
			}, func(err error) {
				if err != nil {
					ui.Warning("Error stopping statistics server: " + err.Error())
				} else {
					ui.Info("Statistics server stopped.")
				}
			})
		}
	}
	{
		enabled := configuration.CurrentConfig.Api.Enabled
		if enabled {
			// === REST api
			restService := api.NewRestService(reg, fanList)
			webserver := restService.CreateWebserver()

			g.Add(func() error {
				host := configuration.CurrentConfig.Api.Host
				port := configuration.CurrentConfig.Api.Port
				if port <= 0 || port >= 65535 {
					port = 9001
				}
				addr := fmt.Sprintf("%s:%d", host, port)
				if err := webserver.Start(addr); err != nil {
					ui.Error("Cannot start REST api endpoint (%s)", err.Error())
				}

				<-ctx.Done()
				ui.Info("Stopping REST api server...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				return webserver.Shutdown(timeoutCtx)
			}, func(err error) {
				if err != nil {
					ui.Warning("Error stopping REST api server: " + err.Error())
				} else {
					ui.Info("REST api server stopped.")
				}
			})
		}
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received SIGTERM signal, exiting...")
			return nil
		}, func(err error) {
			defer close(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// InitializeObjects builds the registry and all enabled fans from the
// current configuration
func InitializeObjects() (*registry.Registry, []*fans.Fan) {
	config := configuration.CurrentConfig

	factory := func(name string) hwmon.Device {
		return hwmon.NewChannel(name, config.ChannelPath(name))
	}
	reg := registry.NewRegistry(factory, config.Delay)

	var fanList []*fans.Fan
	for _, fanConfig := range config.Fans {
		if !fanConfig.Enabled {
			ui.Info("Fan %s is disabled, skipping...", fanConfig.ID)
			continue
		}
		fan, err := reg.CreateFan(fanConfig)
		if err != nil {
			ui.Fatal("Unable to process fan configuration of %s: %v", fanConfig.ID, err)
		}
		fanList = append(fanList, fan)
	}

	if len(fanList) == 0 {
		ui.Fatal("No valid fan configurations, exiting.")
	}

	return reg, fanList
}

func getProcessOwner() string {
	stdout, err := exec.Command("ps", "-o", "user=", "-p", strconv.Itoa(os.Getpid())).Output()
	if err != nil {
		ui.Fatal("Error checking process owner: %v", err)
		os.Exit(1)
	}
	return strings.TrimSpace(string(stdout))
}
