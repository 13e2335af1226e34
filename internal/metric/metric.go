package metric

// Metric identifies one of the biometric time-series categories served by the
// data gateway.
type Metric string

const (
	IntradayHeartRate  Metric = "intraday_heart_rate"
	IntradaySpO2       Metric = "intraday_spo2"
	IntradayBreathRate Metric = "intraday_breath_rate"
	IntradayHRV        Metric = "intraday_hrv"
	IntradayActivity   Metric = "intraday_activity"
	BreathingRateLight Metric = "breathing_rate_light"
	BreathingRateFull  Metric = "breathing_rate_full"
	BreathingRateREM   Metric = "breathing_rate_rem"
	BreathingRateDeep  Metric = "breathing_rate_deep"
	AZMFatBurn         Metric = "azm_fat_burn"
	AZMCardio          Metric = "azm_cardio"
	AZMPeak            Metric = "azm_peak"
	AZMTotal           Metric = "azm_total"
	HRVHighFrequency   Metric = "hrv_hf"
	HRVRMSSD           Metric = "hrv_rmssd"
	HRVLowFrequency    Metric = "hrv_lf"
	HRVCoverage        Metric = "hrv_coverage"
)

// Info describes per-metric capabilities. RequiresZoneOverlay marks metrics
// whose plots are joined with a heart-rate zone lookup; adding a new
// zone-bearing metric is a catalog change, not a code branch.
type Info struct {
	Label               string
	RequiresZoneOverlay bool
}

var catalog = map[Metric]Info{
	IntradayHeartRate:  {Label: "Heart Rate (intraday)", RequiresZoneOverlay: true},
	IntradaySpO2:       {Label: "SpO2 (intraday)"},
	IntradayBreathRate: {Label: "Breathing Rate (intraday)"},
	IntradayHRV:        {Label: "HRV (intraday)"},
	IntradayActivity:   {Label: "Activity (intraday)"},
	BreathingRateLight: {Label: "Breathing Rate (light sleep)"},
	BreathingRateFull:  {Label: "Breathing Rate (full night)"},
	BreathingRateREM:   {Label: "Breathing Rate (REM sleep)"},
	BreathingRateDeep:  {Label: "Breathing Rate (deep sleep)"},
	AZMFatBurn:         {Label: "Active Zone Minutes (fat burn)"},
	AZMCardio:          {Label: "Active Zone Minutes (cardio)"},
	AZMPeak:            {Label: "Active Zone Minutes (peak)"},
	AZMTotal:           {Label: "Active Zone Minutes (total)"},
	HRVHighFrequency:   {Label: "HRV HF power"},
	HRVRMSSD:           {Label: "HRV RMSSD"},
	HRVLowFrequency:    {Label: "HRV LF power"},
	HRVCoverage:        {Label: "HRV coverage"},
}

// Lookup resolves a metric name coming from a request. The second return is
// false for names outside the catalog.
func Lookup(name string) (Metric, bool) {
	m := Metric(name)
	_, ok := catalog[m]
	return m, ok
}

// RequiresZoneOverlay reports whether plots of m carry heart-rate zone bands.
func RequiresZoneOverlay(m Metric) bool {
	return catalog[m].RequiresZoneOverlay
}

// Label returns the display label for m, or the raw name for unknown metrics.
func Label(m Metric) string {
	if info, ok := catalog[m]; ok {
		return info.Label
	}
	return string(m)
}

// All returns every supported metric name. The order is not significant.
func All() []Metric {
	metrics := make([]Metric, 0, len(catalog))
	for m := range catalog {
		metrics = append(metrics, m)
	}
	return metrics
}
