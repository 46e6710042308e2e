package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sethvargo/go-envconfig"

	"github.com/nandanugg/region-notifier/pkg/logger"
)

type fixMessage struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

type settings struct {
	Broker   string `env:"MQTT_BROKER, default=tcp://localhost:1883"`
	DeviceID string `env:"DEVICE_ID"`
}

type waypoint struct {
	lat, lon float64
}

// route walks through the sample catalog: Docklands, the CBD, Flinders
// Street, out to Fitzroy and back.
var route = []waypoint{
	{-37.8160, 144.9350},
	{-37.8165, 144.9460},
	{-37.8140, 144.9580},
	{-37.8125, 144.9650},
	{-37.8180, 144.9670},
	{-37.8105, 144.9720},
	{-37.7990, 144.9780},
	{-37.7960, 144.9800},
	{-37.8050, 144.9700},
	{-37.8140, 144.9580},
}

// jitter is roughly 20m of GPS noise.
const jitter = 0.0002

func main() {
	log := logger.Init(logger.Options{Service: "fix-publisher"})

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s settings
	if err := envconfig.Process(ctx, &s); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if s.DeviceID == "" {
		s.DeviceID = uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions().
		AddBroker(s.Broker).
		SetClientID("region-notifier-device-" + s.DeviceID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	topic := fmt.Sprintf("/geofence/device/%s/fix", s.DeviceID)
	log.Info().Str("broker", s.Broker).Str("topic", topic).Int("interval_s", intervalSec).Msg("publishing")

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for i := 0; ; i++ {
		wp := route[i%len(route)]
		msg := fixMessage{
			Latitude:  wp.lat + (rand.Float64()-0.5)*jitter,
			Longitude: wp.lon + (rand.Float64()-0.5)*jitter,
			Timestamp: time.Now().UnixMilli(),
		}

		payload, _ := json.Marshal(msg)
		token := client.Publish(topic, 1, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Error().Err(err).Msg("publish")
		} else {
			log.Info().RawJSON("fix", payload).Msg("published")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
