package normalize

import "strings"

// Canonical activity categories. The vocabulary stays open: anything not in
// the substring table below is kept, title-cased.
const (
	ActivityRunning          = "Running"
	ActivityTrailRunning     = "Trail Running"
	ActivityTreadmillRunning = "Treadmill Running"
	ActivityCycling          = "Cycling"
	ActivityIndoorCycling    = "Indoor Cycling"
	ActivityWalking          = "Walking"
	ActivityTennis           = "Tennis"
	ActivityOther            = "Other"
)

// activityMappings are substring rules checked in order; the most specific
// variants come first so "trail_running" resolves before "running" and
// "indoor_cycling" before "cycling".
var activityMappings = []struct {
	substr   string
	category string
}{
	{"trail", ActivityTrailRunning},
	{"treadmill", ActivityTreadmillRunning},
	{"street_running", ActivityRunning},
	{"running", ActivityRunning},
	{"indoor_cycling", ActivityIndoorCycling},
	{"mountain_biking", ActivityCycling},
	{"road_cycling", ActivityCycling},
	{"cycling", ActivityCycling},
	{"hiking", ActivityWalking},
	{"walking", ActivityWalking},
	{"tennis", ActivityTennis},
	{"tenis", ActivityTennis},
}

// ActivityType unifies the sport vocabularies of the different sources onto
// one category set so the same logical sport collapses before deduplication.
// Unknown but non-empty values survive title-cased; empty input becomes
// "Other".
func ActivityType(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	lower = strings.ReplaceAll(lower, " ", "_")
	if lower == "" || lower == "nan" {
		return ActivityOther
	}
	for _, m := range activityMappings {
		if strings.Contains(lower, m.substr) {
			return m.category
		}
	}
	return titleCase(lower)
}

// titleCase capitalises each underscore- or space-separated word.
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
