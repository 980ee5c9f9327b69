package weather

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	metersToStatuteMiles = 0.000621371
	mpsToKnots           = 1.94384
	kmhToKnots           = 0.539957
)

// Observation is the subset of a METAR report the safety rules need.
type Observation struct {
	Station    string
	Visibility float64 // statute miles
	Ceiling    *int    // feet AGL of the first BKN/OVC layer or vertical visibility; nil when none
	WindSpeed  int     // knots
	Phenomena  []string
}

// Conditions renders the present-weather groups, or "Clear" when there are none.
func (o Observation) Conditions() string {
	if len(o.Phenomena) == 0 {
		return "Clear"
	}
	return strings.Join(o.Phenomena, ", ")
}

var (
	reStation  = regexp.MustCompile(`^[A-Z][A-Z0-9]{3}$`)
	reTime     = regexp.MustCompile(`^\d{6}Z$`)
	reWind     = regexp.MustCompile(`^(VRB|\d{3})(\d{2,3})(?:G(\d{2,3}))?(KT|MPS|KMH)$`)
	reVarWind  = regexp.MustCompile(`^\d{3}V\d{3}$`)
	reVisSM    = regexp.MustCompile(`^([MP])?(\d+)SM$`)
	reVisFrac  = regexp.MustCompile(`^([MP])?(\d+)/(\d+)SM$`)
	reVisMeter = regexp.MustCompile(`^(\d{4})(NDV)?$`)
	reWhole    = regexp.MustCompile(`^\d$`)
	reCloud    = regexp.MustCompile(`^(FEW|SCT|BKN|OVC|VV)(\d{3}|///)(CB|TCU)?$`)
	reWeather  = regexp.MustCompile(`^(\+|-|VC)?(MI|PR|BC|DR|BL|SH|TS|FZ)?((?:DZ|RA|SN|SG|IC|PL|GR|GS|UP|BR|FG|FU|VA|DU|SA|HZ|PY|PO|SQ|FC|SS|DS)*)$`)
)

var intensityNames = map[string]string{"-": "Light", "+": "Heavy", "VC": "Vicinity"}

var descriptorNames = map[string]string{
	"MI": "Shallow", "PR": "Partial", "BC": "Patches", "DR": "Low Drifting",
	"BL": "Blowing", "SH": "Showers", "TS": "Thunderstorm", "FZ": "Freezing",
}

var phenomenonNames = map[string]string{
	"DZ": "Drizzle", "RA": "Rain", "SN": "Snow", "SG": "Snow Grains", "IC": "Ice Crystals",
	"PL": "Ice Pellets", "GR": "Hail", "GS": "Small Hail", "UP": "Unknown Precipitation",
	"BR": "Mist", "FG": "Fog", "FU": "Smoke", "VA": "Volcanic Ash", "DU": "Dust",
	"SA": "Sand", "HZ": "Haze", "PY": "Spray", "PO": "Dust Whirls", "SQ": "Squalls",
	"FC": "Funnel Cloud", "SS": "Sandstorm", "DS": "Duststorm",
}

// ErrNoMETAR is returned for an empty report.
var ErrNoMETAR = errors.New("empty METAR report")

// ParseMETAR extracts visibility, ceiling, wind and present weather from a raw METAR line.
// Visibility defaults to 10 SM when the report has none; CAVOK means 10 SM and no ceiling.
// Trend and remark sections are ignored.
func ParseMETAR(raw string) (*Observation, error) {
	tokens := strings.Fields(strings.ToUpper(raw))
	if len(tokens) == 0 {
		return nil, ErrNoMETAR
	}

	obs := &Observation{Visibility: DefaultVisibility}
	haveVisibility := false
	haveWind := false

	i := 0
	if tokens[i] == "METAR" || tokens[i] == "SPECI" {
		i++
	}
	if i < len(tokens) && reStation.MatchString(tokens[i]) {
		obs.Station = tokens[i]
		i++
	}

	for ; i < len(tokens); i++ {
		tok := tokens[i]

		switch tok {
		case "RMK", "TEMPO", "BECMG", "NOSIG":
			i = len(tokens)
			continue
		case "AUTO", "COR", "NIL", "SKC", "CLR", "NSC", "NCD", "NSW":
			continue
		case "CAVOK":
			obs.Visibility = DefaultVisibility
			haveVisibility = true
			continue
		}

		if reTime.MatchString(tok) || reVarWind.MatchString(tok) {
			continue
		}

		if !haveWind {
			if m := reWind.FindStringSubmatch(tok); m != nil {
				speed, _ := strconv.Atoi(m[2])
				obs.WindSpeed = toKnots(float64(speed), m[4])
				haveWind = true
				continue
			}
		}

		if !haveVisibility {
			// "1 1/2SM" arrives as two tokens.
			if reWhole.MatchString(tok) && i+1 < len(tokens) {
				if m := reVisFrac.FindStringSubmatch(tokens[i+1]); m != nil && m[1] == "" {
					whole, _ := strconv.Atoi(tok)
					obs.Visibility = float64(whole) + fraction(m[2], m[3])
					haveVisibility = true
					i++
					continue
				}
			}
			if m := reVisFrac.FindStringSubmatch(tok); m != nil {
				obs.Visibility = fraction(m[2], m[3])
				haveVisibility = true
				continue
			}
			if m := reVisSM.FindStringSubmatch(tok); m != nil {
				v, _ := strconv.Atoi(m[2])
				obs.Visibility = float64(v)
				haveVisibility = true
				continue
			}
			if m := reVisMeter.FindStringSubmatch(tok); m != nil && haveWind {
				meters, _ := strconv.Atoi(m[1])
				obs.Visibility = roundTo(float64(meters)*metersToStatuteMiles, 2)
				haveVisibility = true
				continue
			}
		}

		if m := reCloud.FindStringSubmatch(tok); m != nil {
			// An indefinite ceiling (VV) counts as a ceiling at the reported height.
			if obs.Ceiling == nil && (m[1] == "BKN" || m[1] == "OVC" || m[1] == "VV") && m[2] != "///" {
				hundreds, _ := strconv.Atoi(m[2])
				ft := hundreds * 100
				obs.Ceiling = &ft
			}
			continue
		}

		if m := reWeather.FindStringSubmatch(tok); m != nil && (m[2] != "" || m[3] != "") {
			obs.Phenomena = append(obs.Phenomena, describeWeather(m[1], m[2], m[3]))
			continue
		}
	}

	if obs.Station == "" && !haveWind && !haveVisibility {
		return nil, fmt.Errorf("unrecognized METAR: %q", raw)
	}

	return obs, nil
}

func toKnots(speed float64, unit string) int {
	switch unit {
	case "MPS":
		speed *= mpsToKnots
	case "KMH":
		speed *= kmhToKnots
	}
	return int(math.Round(speed))
}

func fraction(num, den string) float64 {
	n, _ := strconv.Atoi(num)
	d, _ := strconv.Atoi(den)
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func describeWeather(intensity, descriptor, phenomena string) string {
	var parts []string
	if name, ok := intensityNames[intensity]; ok {
		parts = append(parts, name)
	}
	if name, ok := descriptorNames[descriptor]; ok {
		parts = append(parts, name)
	}
	for j := 0; j+2 <= len(phenomena); j += 2 {
		if name, ok := phenomenonNames[phenomena[j:j+2]]; ok {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, " ")
}
