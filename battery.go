package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"gopocket/screens"
)

// BatteryConfig points at the PMIC's power_supply node in sysfs.
type BatteryConfig struct {
	Path string        `yaml:"path"` // e.g. "/sys/class/power_supply/axp2101-battery"
	Poll time.Duration `yaml:"poll"` // default 30s
}

// pollBattery feeds capacity and charging state to the level screen.
// Call as a goroutine.
func (app *App) pollBattery(stop <-chan struct{}) {
	interval := app.cfg.Battery.Poll
	if interval == 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			app.readBattery()
		}
	}
}

func (app *App) readBattery() {
	raw, err := os.ReadFile(filepath.Join(app.cfg.Battery.Path, "capacity"))
	if err != nil {
		log.Debug().Err(err).Msg("battery capacity read")
		return
	}
	pct, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pct < 0 || pct > 100 {
		return
	}
	app.display.Send(screens.MsgBatteryStatus, []byte{byte(pct)})

	raw, err = os.ReadFile(filepath.Join(app.cfg.Battery.Path, "status"))
	if err != nil {
		return
	}
	charging := byte(0)
	if strings.TrimSpace(string(raw)) == "Charging" {
		charging = 1
	}
	app.display.Send(screens.MsgBatteryCharging, []byte{charging})
}
