package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	numberRe = regexp.MustCompile(`^(.*?)-(\d+)(?:-(.*))?$`)
)

// Device categories shown on the dashboard.
const (
	CategoryPatientMonitoring = "Patient Monitoring"
	CategoryInfusion          = "Infusion Systems"
	CategoryEnvironmental     = "Environmental Sensors"
	CategoryRespiratory       = "Respiratory Equipment"
	CategoryImaging           = "Imaging Systems"
	CategoryOther             = "Other Devices"
)

// kinds is checked in order; the first marker found in the id wins.
var kinds = []struct {
	marker   string
	category string
}{
	{"BED-MONITOR", CategoryPatientMonitoring},
	{"INFUSION-PUMP", CategoryInfusion},
	{"TEMP-SENSOR", CategoryEnvironmental},
	{"VENTILATOR", CategoryRespiratory},
	{"MRI", CategoryImaging},
	{"CT-SCANNER", CategoryImaging},
}

// ParsedDeviceID holds the structured data parsed from a device identifier
// such as "BED-MONITOR-101-ICU".
type ParsedDeviceID struct {
	Kind     string `json:"kind"`
	Number   int    `json:"number,omitempty"`
	Location string `json:"location,omitempty"`
	Category string `json:"category"`
}

// ParseDeviceID splits a device id into kind, unit number and location.
// Ids without a numeric segment keep the whole remainder as location.
func ParseDeviceID(raw string) (ParsedDeviceID, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = spaceRe.ReplaceAllString(s, "-")
	if s == "" {
		return ParsedDeviceID{}, fmt.Errorf("unable to parse empty device id")
	}

	p := ParsedDeviceID{Kind: s, Category: Categorize(s)}

	// 1) "<KIND>-<NUMBER>[-<LOCATION>]"
	if m := numberRe.FindStringSubmatch(s); m != nil && m[1] != "" {
		if n, err := strconv.Atoi(m[2]); err == nil {
			p.Kind = m[1]
			p.Number = n
			p.Location = m[3]
			return p, nil
		}
	}

	// 2) Known marker prefix, rest is the location ("TEMP-SENSOR-RUANG-OBAT")
	for _, k := range kinds {
		if strings.HasPrefix(s, k.marker+"-") {
			p.Kind = k.marker
			p.Location = strings.TrimPrefix(s, k.marker+"-")
			break
		}
	}
	return p, nil
}

// Categorize maps a device id to its dashboard category.
func Categorize(deviceID string) string {
	s := strings.ToUpper(deviceID)
	for _, k := range kinds {
		if strings.Contains(s, k.marker) {
			return k.category
		}
	}
	return CategoryOther
}
