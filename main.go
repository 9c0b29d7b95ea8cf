package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"gopocket/encoder"
	"gopocket/indicator"
	"gopocket/mqtt"
	"gopocket/port"
	"gopocket/printpipe"
	"gopocket/rfid"
	"gopocket/screens"
	"gopocket/uartmux"
)

var myBuild string

// App holds the application state and dependencies.
type App struct {
	cfg       *Config
	port      *port.Serial
	mux       *uartmux.Mux
	mqtt      *mqtt.Client
	indicator indicator.Indicator
	display   *screens.Manager
	rfidScr   *screens.RFIDScan
	aiLogScr  *screens.AILog
	levelScr  *screens.LevelIndicator
	encoder   *encoder.Encoder
	pipe      *printpipe.Pipe
}

func main() {
	fmt.Printf("gopocket build %s\n", myBuild)

	cfgfile := flag.String("cfg", "gopocket.cfg", "Config file")
	testprint := flag.Bool("testprint", false, "Print a test page and exit")
	flag.Parse()

	f, err := os.Open(*cfgfile)
	if err != nil {
		log.Fatal().Err(err).Msg("open config")
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatal().Err(err).Msg("decode config")
	}
	if cfg.ClientID == "" {
		log.Fatal().Msg("client_id missing in config file")
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	app := &App{cfg: &cfg}

	// Open the expansion UART
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = uartmux.RFIDScanBaud
	}
	app.port, err = port.OpenSerial(cfg.Serial)
	if err != nil {
		log.Fatal().Err(err).Msg("open uart")
	}

	// Status LEDs
	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		log.Fatal().Err(err).Msg("init indicator")
	}
	app.indicator.Idle()

	// UART mux and screens
	app.mux = uartmux.New(app.port, uartmux.Config{})
	app.rfidScr = screens.NewRFIDScan()
	app.aiLogScr = screens.NewAILog()
	app.levelScr = screens.NewLevelIndicator()
	app.display = screens.NewManager(app.rfidScr, app.aiLogScr, app.levelScr)

	app.mux.SetTagHandler(app.onTag)
	app.aiLogScr.RegisterLifecycle(app.mux.AILogLifecycle(app.onAILogData))

	// Navigation encoder drives screen switching, which in turn drives
	// the UART mode through the AI-log screen's lifecycle callback.
	app.encoder, err = encoder.New(cfg.Encoder, encoder.Handlers{
		OnTurn:  app.onEncoderTurn,
		OnPress: app.onEncoderPress,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init encoder")
	}

	// Named pipe print feed
	app.pipe, err = printpipe.New(cfg.PrintPipe, app.printWrite)
	if err != nil {
		log.Fatal().Err(err).Msg("init print pipe")
	}

	// Telemetry uplink
	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect: app.onMQTTConnect,
		OnMessage: app.onMQTTMessage,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init mqtt")
	}

	if err := app.mux.Start(); err != nil {
		log.Fatal().Err(err).Msg("start uart mux")
	}

	if *testprint {
		app.printWrite([]byte("gopocket test page\n"))
		for app.mux.PrintPending() > 0 {
			time.Sleep(100 * time.Millisecond)
		}
		// Give the print loop time to flush the trailing feed and
		// hand the port back.
		time.Sleep(time.Second)
		app.mux.Stop()
		app.port.Close()
		app.indicator.Release()
		return
	}

	stopPoll := make(chan struct{})
	go app.display.Run()
	if cfg.Battery.Path != "" {
		go app.pollBattery(stopPoll)
	}
	if app.pipe != nil {
		go app.pipe.Start()
	}
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Error().Err(err).Msg("mqtt connect")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")

	close(stopPoll)
	if app.pipe != nil {
		app.pipe.Close()
	}
	app.display.Close()
	app.mux.Stop()
	app.mqtt.Disconnect()
	app.port.Close()
	app.indicator.Release()
	if app.encoder != nil {
		app.encoder.Release()
	}

	log.Info().Msg("shutdown complete")
}

// onTag handles a decoded RFID tag from the worker loop.
func (app *App) onTag(devID uint8, tagType rfid.TagType, uid []byte) {
	log.Info().Uint8("dev", devID).Stringer("type", tagType).
		Str("uid", hex.EncodeToString(uid)).Msg("tag scanned")

	app.indicator.Scanning()
	app.rfidScr.UpdateTag(devID, tagType, uid)
	app.display.Send(screens.MsgRFIDScanSuccess, nil)

	topic := fmt.Sprintf("pocket/status/%s/rfid/scan", app.cfg.ClientID)
	payload := fmt.Sprintf(`{"dev":%d,"type":"%s","uid":"%s"}`,
		devID, tagType, hex.EncodeToString(uid))
	app.mqtt.Publish(topic, []byte(payload))

	app.indicator.Idle()
}

// onAILogData handles a raw AI-log record from the worker loop. The
// buffer is reused between reads, so copy before queueing.
func (app *App) onAILogData(_ uartmux.Mode, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	app.display.Send(screens.MsgAILog, cp)

	// Upload to the text agent unless a stream is already carrying it.
	if !app.mux.StreamActive() {
		topic := fmt.Sprintf("pocket/status/%s/ai/text", app.cfg.ClientID)
		app.mqtt.Publish(topic, cp)
	}
}

// printWrite queues bytes for the receipt printer. A full queue drops
// the tail and lights the error LED.
func (app *App) printWrite(p []byte) int {
	app.indicator.Printing()
	n := app.mux.PrintWrite(p)
	if n < len(p) {
		log.Warn().Int("queued", n).Int("len", len(p)).Msg("print queue full")
		app.indicator.Error()
		return n
	}
	app.indicator.Idle()
	return n
}

func (app *App) onEncoderTurn(delta int) {
	if delta > 0 {
		app.display.Next()
	} else {
		app.display.Prev()
	}
}

// onEncoderPress prints a short status receipt.
func (app *App) onEncoderPress() {
	_, _, uid, scans := app.rfidScr.LastTag()
	line := fmt.Sprintf("pocket %s scans=%d last=%s\n",
		app.cfg.ClientID, scans, hex.EncodeToString(uid))
	app.printWrite([]byte(line))
}

func (app *App) onMQTTConnect() {
	// Remote print: text published here comes out of the printer.
	topic := fmt.Sprintf("pocket/control/%s/print", app.cfg.ClientID)
	if err := app.mqtt.Subscribe(topic); err != nil {
		log.Error().Err(err).Msg("subscribe")
	}
}

func (app *App) onMQTTMessage(topic string, payload []byte) {
	printTopic := fmt.Sprintf("pocket/control/%s/print", app.cfg.ClientID)
	if topic == printTopic {
		app.printWrite(payload)
	}
}
