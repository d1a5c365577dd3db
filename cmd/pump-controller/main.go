// Command pump-controller runs the pump lab state machine: four buttons in,
// four outputs out, transitions published to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amelia-cook/BME-Project/internal/gpio"
	"github.com/amelia-cook/BME-Project/internal/logic"
	"github.com/amelia-cook/BME-Project/internal/mqtt"
	"github.com/amelia-cook/BME-Project/internal/status"
	"github.com/amelia-cook/BME-Project/internal/web"
)

func main() {
	tick := flag.Duration("tick", 10*time.Millisecond, "State machine tick interval")
	debounce := flag.Duration("debounce", 20*time.Millisecond, "Button debounce period")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Status heartbeat publish interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	pinSleep := flag.Int("pin-sleep", gpio.DefaultPinSleepButton, "BCM pin for the sleep button")
	pinUp := flag.Int("pin-freq-up", gpio.DefaultPinFreqUpButton, "BCM pin for the frequency-up button")
	pinDown := flag.Int("pin-freq-down", gpio.DefaultPinFreqDownButton, "BCM pin for the frequency-down button")
	pinReset := flag.Int("pin-reset", gpio.DefaultPinResetButton, "BCM pin for the reset button")
	pinHeartbeat := flag.Int("pin-heartbeat", gpio.DefaultPinHeartbeatLED, "BCM pin for the heartbeat LED")
	pinPump := flag.Int("pin-pump", gpio.DefaultPinPumpLED, "BCM pin for the pump LED")
	pinBuzzer := flag.Int("pin-buzzer", gpio.DefaultPinBuzzer, "BCM pin for the buzzer")
	pinError := flag.Int("pin-error", gpio.DefaultPinErrorLED, "BCM pin for the error LED")

	flag.Parse()

	pins := gpio.Pins{
		SleepButton:    *pinSleep,
		FreqUpButton:   *pinUp,
		FreqDownButton: *pinDown,
		ResetButton:    *pinReset,
		HeartbeatLED:   *pinHeartbeat,
		PumpLED:        *pinPump,
		Buzzer:         *pinBuzzer,
		ErrorLED:       *pinError,
	}

	if err := run(*tick, *debounce, *broker, *heartbeat, *httpAddr, pins); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(tick, debounce time.Duration, broker string, heartbeat time.Duration, httpAddr string, pins gpio.Pins) error {
	// Initialize GPIO
	board, err := gpio.NewRealBoard(pins, debounce)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      tick.Milliseconds(),
		DebounceMs:  debounce.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPPort:    httpAddr,
	})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: tick=%v debounce=%v broker=%s heartbeat=%v", tick, debounce, broker, heartbeat)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(board, publisher, publisher, tracker, heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(board gpio.Board, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	ctrl := logic.NewController(startTime)
	lastHeartbeat := startTime

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			pressed := board.Drain()
			if pressed.Any() {
				log.Printf("buttons pressed: %+v", pressed)
			}

			res := ctrl.Tick(t, pressed)

			// Output-pin failures are unrecoverable: stop the loop and let
			// main exit non-zero.
			for _, cmd := range res.Commands {
				if err := gpio.Apply(board, cmd); err != nil {
					return fmt.Errorf("apply command: %w", err)
				}
			}

			for _, event := range res.Events {
				log.Printf("event: %s (state=%s freq=%dHz)", event.Type, ctrl.State(), ctrl.FreqHz())
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				log.Printf("heartbeat: uptime=%v state=%s freq=%dHz", t.Sub(startTime), ctrl.State(), ctrl.FreqHz())

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					tracker.Update(ctrl.State(), ctrl.FreqHz(), ctrl.Counts())
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(ctrl.State(), ctrl.FreqHz(), ctrl.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}
