// Package replay drives the check-in endpoint from a literal event script.
// Events of one device are posted in script order; different devices are
// posted in parallel.
package replay

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Event is one scripted device report.
type Event struct {
	DeviceID string `yaml:"device_id" json:"device_id" validate:"required"`
	Status   string `yaml:"status" json:"status" validate:"required"`
	Message  string `yaml:"message" json:"message"`
}

// Script is a replayable sequence of events.
type Script struct {
	Endpoint   string  `yaml:"endpoint" validate:"omitempty,url"`
	IntervalMs int     `yaml:"interval_ms" validate:"gte=0"`
	Events     []Event `yaml:"events" validate:"required,min=1,dive"`
}

// Interval is the pause between two dispatched events.
func (s *Script) Interval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// LoadScript reads and validates a YAML script.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Script
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode script %s: %w", path, err)
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid script %s: %w", path, err)
	}
	return &s, nil
}
