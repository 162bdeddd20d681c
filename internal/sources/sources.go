// Package sources assembles the configured adapter set. Every known source
// is always registered; an unlinked or absent one simply contributes zero
// rows at fetch time.
package sources

import (
	"github.com/gonzaloobispo/Bioengine/internal/adapter"
	"github.com/gonzaloobispo/Bioengine/internal/adapter/applecda"
	"github.com/gonzaloobispo/Bioengine/internal/adapter/applehealth"
	"github.com/gonzaloobispo/Bioengine/internal/adapter/cache"
	"github.com/gonzaloobispo/Bioengine/internal/adapter/garmincsv"
	"github.com/gonzaloobispo/Bioengine/internal/adapter/pesobook"
	"github.com/gonzaloobispo/Bioengine/internal/adapter/runkeeper"
	"github.com/gonzaloobispo/Bioengine/internal/adapter/withings"
	"github.com/gonzaloobispo/Bioengine/internal/config"
)

// FromConfig builds the weight and activity source lists for a deployment.
func FromConfig(cfg config.Config) ([]adapter.WeightSource, []adapter.ActivitySource) {
	store := cache.NewStore(cfg.CacheDir)

	apple := applehealth.New(cfg.AppleHealthExport, store)
	rk := runkeeper.New(cfg.RunkeeperExportDir)

	weights := []adapter.WeightSource{
		withings.New(cfg.WithingsClientID, cfg.WithingsSecret, cfg.WithingsTokenFile),
		rk,
		apple,
		applecda.New(cfg.AppleCDADir, store),
		pesobook.New(cfg.PesoBookCSVPath),
	}
	activities := []adapter.ActivitySource{
		garmincsv.New(cfg.GarminCSVPath),
		rk,
		apple,
	}
	return weights, activities
}
