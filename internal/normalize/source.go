package normalize

import (
	"strings"

	"github.com/gonzaloobispo/Bioengine/internal/domain"
)

// sourceAliases maps the historically accumulated free-text provenance tags
// onto canonical labels. Longer (more specific) aliases are checked first so
// "Apple CDA (Medical Doc)" wins over a bare "Apple" prefix match.
var sourceAliases = []struct {
	substr string
	label  string
}{
	{"pesobook (histórico)", domain.SourcePesoBook},
	{"pesobook (historico)", domain.SourcePesoBook},
	{"apple cda (medical doc)", domain.SourceApple},
	{"apple cda (brute force)", domain.SourceApple},
	{"apple cda (forensic)", domain.SourceApple},
	{"apple cda (vacuum)", domain.SourceApple},
	{"apple health xml", domain.SourceApple},
	{"withings cloud", domain.SourceWithings},
	{"garmin connect", domain.SourceGarmin},
	{"garmin cloud", domain.SourceGarmin},
	{"apple health", domain.SourceApple},
	{"apple cda", domain.SourceApple},
	{"pesobook", domain.SourcePesoBook},
	{"runkeeper", domain.SourceRunkeeper},
	{"withings", domain.SourceWithings},
	{"garmin", domain.SourceGarmin},
	{"apple", domain.SourceApple},
}

// SourceLabel collapses a source tag onto its canonical provenance label,
// keeping the trimmed input when no alias matches.
func SourceLabel(s string) string {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	for _, alias := range sourceAliases {
		if strings.Contains(lower, alias.substr) {
			return alias.label
		}
	}
	return trimmed
}
