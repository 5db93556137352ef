package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type stubGauge struct {
	vol, soc, rate float64
	alerted        bool
}

func (g *stubGauge) Voltage() (float64, error)    { return g.vol, nil }
func (g *stubGauge) SOC() (float64, error)        { return g.soc, nil }
func (g *stubGauge) ChangeRate() (float64, error) { return g.rate, nil }
func (g *stubGauge) Alert(bool) (bool, error)     { return g.alerted, nil }

type recordingPub struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
}

func (p *recordingPub) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.topics)
}

func TestPayload(t *testing.T) {
	payload, err := Payload(&stubGauge{vol: 3.9, soc: 55.25, rate: 2.08, alerted: true})
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["sensor.battery_level"] != float64(55) {
		t.Errorf("level = %v, want 55", m["sensor.battery_level"])
	}
	if m["sensor.battery_voltage"] != 3.9 {
		t.Errorf("voltage = %v, want 3.9", m["sensor.battery_voltage"])
	}
	if m["sensor.battery_state"] != "Charging" {
		t.Errorf("state = %v, want Charging", m["sensor.battery_state"])
	}
	if m["sensor.battery_alert"] != true {
		t.Errorf("alert = %v, want true", m["sensor.battery_alert"])
	}
}

func TestReporterRun(t *testing.T) {
	pub := &recordingPub{}
	r := &Reporter{
		Gauge:    &stubGauge{vol: 3.8, soc: 60},
		Pub:      pub,
		Topic:    "fuelmon/battery",
		Interval: 10 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// The first publish happens immediately; wait for a few ticks more.
	deadline := time.After(2 * time.Second)
	for pub.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d publishes before deadline", pub.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancellation")
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	for _, topic := range pub.topics {
		if topic != "fuelmon/battery" {
			t.Errorf("published to %q", topic)
		}
	}
}
