package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fuelmon/internal/max1704x"
)

type MockGauge struct {
	Vol     float64
	Soc     float64
	Rate    float64
	Alerted bool

	VolErr  error
	SocErr  error
	RateErr error
}

func (m *MockGauge) Voltage() (float64, error)    { return m.Vol, m.VolErr }
func (m *MockGauge) SOC() (float64, error)        { return m.Soc, m.SocErr }
func (m *MockGauge) ChangeRate() (float64, error) { return m.Rate, m.RateErr }
func (m *MockGauge) Alert(bool) (bool, error)     { return m.Alerted, nil }

func TestRootHandler(t *testing.T) {
	tests := []struct {
		name           string
		gauge          *MockGauge
		expectedState  string
		expectedLevel  int
		expectedVol    float64
		expectedCharge bool
		expectedAlert  bool
	}{
		{
			name:           "Charging",
			gauge:          &MockGauge{Vol: 3.9, Soc: 55.0, Rate: 4.5},
			expectedState:  "Charging",
			expectedLevel:  55,
			expectedVol:    3.9,
			expectedCharge: true,
		},
		{
			name:           "Discharging",
			gauge:          &MockGauge{Vol: 3.7, Soc: 40.0, Rate: -2.1},
			expectedState:  "Discharging",
			expectedLevel:  40,
			expectedVol:    3.7,
			expectedCharge: false,
		},
		{
			name:           "Full",
			gauge:          &MockGauge{Vol: 4.2, Soc: 100.0, Rate: 0},
			expectedState:  "Full",
			expectedLevel:  100,
			expectedVol:    4.2,
			expectedCharge: false,
		},
		{
			name:           "Idle below full",
			gauge:          &MockGauge{Vol: 3.8, Soc: 60.0, Rate: 0},
			expectedState:  "Not Charging",
			expectedLevel:  60,
			expectedVol:    3.8,
			expectedCharge: false,
		},
		{
			name: "Base part without rate register",
			gauge: &MockGauge{
				Vol: 3.7, Soc: 40.0,
				RateErr: max1704x.ErrNotSupported,
			},
			expectedState:  "Discharging",
			expectedLevel:  40,
			expectedVol:    3.7,
			expectedCharge: false,
		},
		{
			name: "Low battery alert",
			gauge: &MockGauge{
				Vol: 3.4, Soc: 8.0, Rate: -1.5,
				Alerted: true,
			},
			expectedState:  "Discharging",
			expectedLevel:  8,
			expectedVol:    3.4,
			expectedCharge: false,
			expectedAlert:  true,
		},
		{
			name: "Partial read failure",
			gauge: &MockGauge{
				Soc: 40.0, Rate: -2.0,
				VolErr: errors.New("bus failure"),
			},
			expectedState: "Discharging",
			expectedLevel: 40,
			expectedVol:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{gauge: tt.gauge}

			req := httptest.NewRequest("GET", "/", nil)
			w := httptest.NewRecorder()

			s.rootHandler(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("Expected status 200, got %d", resp.StatusCode)
			}

			var br BatteryResponse
			if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if br.State != tt.expectedState {
				t.Errorf("Expected State %s, got %s", tt.expectedState, br.State)
			}
			if br.Level != tt.expectedLevel {
				t.Errorf("Expected Level %d, got %d", tt.expectedLevel, br.Level)
			}
			if br.Voltage != tt.expectedVol {
				t.Errorf("Expected Voltage %f, got %f", tt.expectedVol, br.Voltage)
			}
			if br.IsCharging != tt.expectedCharge {
				t.Errorf("Expected IsCharging %v, got %v", tt.expectedCharge, br.IsCharging)
			}
			if br.Alert != tt.expectedAlert {
				t.Errorf("Expected Alert %v, got %v", tt.expectedAlert, br.Alert)
			}
		})
	}
}

func TestStateFromRate(t *testing.T) {
	tests := []struct {
		rate  float64
		level int
		want  string
	}{
		{4.5, 50, "Charging"},
		{-4.5, 50, "Discharging"},
		{0.1, 100, "Full"},
		{0.1, 99, "Full"},
		{0, 50, "Not Charging"},
		{-0.1, 50, "Not Charging"},
	}
	for _, tt := range tests {
		if got := stateFromRate(tt.rate, tt.level); got != tt.want {
			t.Errorf("stateFromRate(%v, %d) = %q, want %q", tt.rate, tt.level, got, tt.want)
		}
	}
}
