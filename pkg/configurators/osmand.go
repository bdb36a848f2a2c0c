package configurators

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/spec"
)

// gpxFile is the favourites GPX document.
type gpxFile struct {
	XMLName   xml.Name      `xml:"gpx"`
	Version   string        `xml:"version,attr"`
	Creator   string        `xml:"creator,attr"`
	Namespace string        `xml:"xmlns,attr"`
	Waypoints []gpxWaypoint `xml:"wpt"`
}

type gpxWaypoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Name string  `xml:"name"`
	Desc string  `xml:"desc,omitempty"`
}

func newGPXFile() *gpxFile {
	return &gpxFile{
		Version:   "1.1",
		Creator:   "OsmAnd",
		Namespace: "http://www.topografix.com/GPX/1/1",
	}
}

// preloadedLocations are map places known by name alone; a favorite naming
// one of these needs no coordinates.
var preloadedLocations = map[string][2]float64{
	"Balzers, Liechtenstein":     {47.0688832, 9.5061564},
	"Bendern, Liechtenstein":     {47.2122151, 9.5062101},
	"Malbun, Liechtenstein":      {47.1026191, 9.6083057},
	"Nendeln, Liechtenstein":     {47.1973857, 9.5430636},
	"Oberplanken, Liechtenstein": {47.1784977, 9.5450163},
	"Planken, Liechtenstein":     {47.1858882, 9.5452201},
	"Rotenboden, Liechtenstein":  {47.1275785, 9.5387131},
	"Ruggell, Liechtenstein":     {47.23976, 9.5262837},
	"Schaan, Liechtenstein":      {47.1663432, 9.5103085},
	"Schaanwald, Liechtenstein":  {47.2165476, 9.5699984},
	"Schönberg, Liechtenstein":   {47.1303814, 9.5930117},
	"Triesen, Liechtenstein":     {47.106997, 9.5274854},
}

// Osmand configures the OsmAnd maps app's favourites GPX file.
type Osmand struct{}

func (c *Osmand) Domain() spec.Domain { return spec.DomainOsmand }

func (c *Osmand) EnsureReady(ctx context.Context, dev device.Controller) error {
	if err := ensureApp(ctx, dev, pkgOsmand); err != nil {
		return err
	}
	// First launch creates the files directory tree.
	return warmApp(ctx, dev, pkgOsmand)
}

func (c *Osmand) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.OsmandSpec)
	o := engine.NewOutcome(spec.DomainOsmand)

	if s.ClearFavorites {
		if err := c.clearFavorites(ctx, dev); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	if len(s.AddFavorites) > 0 {
		doc, err := c.loadFavorites(ctx, dev)
		if err != nil {
			doc = newGPXFile()
		}
		written := 0
		for i, fav := range s.AddFavorites {
			o.ItemsTotal++
			lat, lon := fav.Lat, fav.Lon
			if lat == 0 && lon == 0 {
				coords, ok := preloadedLocations[fav.Name]
				if !ok {
					o.RecordError("add_favorite", i, fmt.Errorf("favorite %q has no coordinates", fav.Name))
					continue
				}
				lat, lon = coords[0], coords[1]
			}
			doc.Waypoints = append(doc.Waypoints, gpxWaypoint{
				Lat:  lat,
				Lon:  lon,
				Name: fav.Name,
				Desc: "Favorite location: " + fav.Name,
			})
			written++
		}
		if written > 0 {
			if err := c.saveFavorites(ctx, dev, doc); err != nil {
				o.RecordError("write_favorites", -1, err)
			} else {
				o.ItemsWritten += written
			}
		}
	}

	o.Finalize()
	return o
}

// clearFavorites empties the backup directory and writes fresh empty GPX
// documents over both favourites files.
func (c *Osmand) clearFavorites(ctx context.Context, dev device.Controller) error {
	if _, err := dev.RunShell(ctx, fmt.Sprintf("rm -rf %s/*", osmandBackupDir)); err != nil {
		return err
	}
	for _, p := range []string{osmandFavoritesPath, osmandLegacyFavorites} {
		if err := mkdirAll(ctx, dev, path.Dir(p)); err != nil {
			return err
		}
		if err := c.writeGPX(ctx, dev, p, newGPXFile()); err != nil {
			return err
		}
	}
	return nil
}

// loadFavorites pulls and parses the on-device favourites file.
func (c *Osmand) loadFavorites(ctx context.Context, dev device.Controller) (*gpxFile, error) {
	tmp, err := os.CreateTemp("", "droidseed-favorites-*.gpx")
	if err != nil {
		return nil, err
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := dev.PullFile(ctx, osmandFavoritesPath, tmp.Name()); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, err
	}
	doc := newGPXFile()
	if err := xml.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Osmand) saveFavorites(ctx context.Context, dev device.Controller, doc *gpxFile) error {
	if err := mkdirAll(ctx, dev, path.Dir(osmandFavoritesPath)); err != nil {
		return err
	}
	return c.writeGPX(ctx, dev, osmandFavoritesPath, doc)
}

func (c *Osmand) writeGPX(ctx context.Context, dev device.Controller, devicePath string, doc *gpxFile) error {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append([]byte(xml.Header), data...)
	return writeDeviceFile(ctx, dev, devicePath, data)
}
