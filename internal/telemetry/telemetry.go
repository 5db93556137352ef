// Package telemetry periodically samples the fuel gauge and publishes the
// battery status as retained JSON.
package telemetry

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"fuelmon/internal/server"
)

// Publisher is the slice of the MQTT client the reporter uses.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Reporter samples a gauge on a fixed interval and hands the encoded
// status to a publisher. Publish failures are logged and the next tick
// tries again; the broker's retained message keeps the last good state.
type Reporter struct {
	Gauge    server.Gauge
	Pub      Publisher
	Topic    string
	Interval time.Duration
}

// Run publishes once immediately, then on every interval tick, until ctx
// is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.publish()
		}
	}
}

func (r *Reporter) publish() {
	payload, err := Payload(r.Gauge)
	if err != nil {
		log.Printf("Error encoding telemetry: %v", err)
		return
	}
	if err := r.Pub.Publish(r.Topic, payload); err != nil {
		log.Printf("Error publishing telemetry: %v", err)
	}
}

// Payload samples the gauge and encodes the same JSON document the HTTP
// endpoint serves, so both surfaces stay in agreement.
func Payload(gauge server.Gauge) ([]byte, error) {
	return json.Marshal(server.Status(gauge))
}
