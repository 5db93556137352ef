package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"fuelmon/internal/max1704x"
)

// Gauge is the slice of the fuel-gauge driver the server consumes.
type Gauge interface {
	Voltage() (float64, error)
	SOC() (float64, error)
	ChangeRate() (float64, error)
	Alert(clear bool) (bool, error)
}

// BatteryResponse mirrors the sensor naming used by the home-automation
// consumers of this endpoint.
type BatteryResponse struct {
	Level      int     `json:"sensor.battery_level"`
	Voltage    float64 `json:"sensor.battery_voltage"`
	Rate       float64 `json:"sensor.charge_rate"`
	State      string  `json:"sensor.battery_state"`
	IsCharging bool    `json:"sensor.is_charging"`
	Alert      bool    `json:"sensor.battery_alert"`
}

// Options tunes the HTTP server; zero values get the defaults the daemon
// shipped with.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	gauge Gauge
}

// Run serves battery status on the given port until the listener fails.
func Run(port int, gauge Gauge, opts Options) error {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	s := &Server{gauge: gauge}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.rootHandler)

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	log.Printf("Listening on %s", addr)
	return srv.ListenAndServe()
}

// Status samples the gauge into a response. Individual read failures are
// logged and leave their field at the default; rate support is optional, so
// a gauge without it still reports a usable state.
func Status(gauge Gauge) BatteryResponse {
	// Default assumption if we can't read anything.
	resp := BatteryResponse{State: "Discharging"}

	if soc, err := gauge.SOC(); err != nil {
		log.Printf("Error reading SOC: %v", err)
	} else {
		resp.Level = int(soc)
	}

	if v, err := gauge.Voltage(); err != nil {
		log.Printf("Error reading voltage: %v", err)
	} else {
		resp.Voltage = v
	}

	rate, err := gauge.ChangeRate()
	switch {
	case errors.Is(err, max1704x.ErrNotSupported):
		// Base parts have no CRATE register; keep the default state.
	case err != nil:
		log.Printf("Error reading charge rate: %v", err)
	default:
		resp.Rate = rate
		resp.State = stateFromRate(rate, resp.Level)
	}

	if alert, err := gauge.Alert(false); err != nil {
		log.Printf("Error reading alert: %v", err)
	} else {
		resp.Alert = alert
	}

	resp.IsCharging = resp.State == "Charging"
	return resp
}

// stateFromRate maps the signed %/hr rate onto the states consumers expect.
// Rates within one CRATE count of zero are treated as flat.
func stateFromRate(rate float64, level int) string {
	switch {
	case rate > 0.208:
		return "Charging"
	case rate < -0.208:
		return "Discharging"
	case level >= 99:
		return "Full"
	default:
		return "Not Charging"
	}
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	resp := Status(s.gauge)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
