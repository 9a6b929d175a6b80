package domain

import "math"

// NashvilleZipCodes is the static zip registry, in registration order.
// Order matters: nearest-zip ties resolve to the earlier record.
var NashvilleZipCodes = []ZipRecord{
	{Zip: "37201", Name: "Downtown/Capitol Hill", Lat: 36.1627, Lon: -86.7816},
	{Zip: "37202", Name: "North Nashville", Lat: 36.1950, Lon: -86.7810},
	{Zip: "37203", Name: "East Nashville", Lat: 36.1633, Lon: -86.7520},
	{Zip: "37204", Name: "Germantown/Salemtown", Lat: 36.1784, Lon: -86.7644},
	{Zip: "37205", Name: "Sylvan Park/West End", Lat: 36.1450, Lon: -86.8200},
	{Zip: "37206", Name: "Shelby Park/Weaver Park", Lat: 36.1533, Lon: -86.7180},
	{Zip: "37207", Name: "Inglewood/Parkwood", Lat: 36.1317, Lon: -86.7420},
	{Zip: "37208", Name: "North Nashville", Lat: 36.2100, Lon: -86.8050},
	{Zip: "37209", Name: "Hermitage", Lat: 36.1083, Lon: -86.6580},
	{Zip: "37210", Name: "Antioch", Lat: 36.0233, Lon: -86.7050},
	{Zip: "37211", Name: "Brentwood", Lat: 35.9667, Lon: -86.7833},
	{Zip: "37212", Name: "Belmont/The Nations", Lat: 36.1350, Lon: -86.8550},
	{Zip: "37214", Name: "Southeast Nashville", Lat: 36.0733, Lon: -86.7050},
	{Zip: "37215", Name: "Belle Meade", Lat: 36.1533, Lon: -86.9050},
	{Zip: "37216", Name: "East Nashville", Lat: 36.1733, Lon: -86.7300},
	{Zip: "37217", Name: "Riverside", Lat: 36.0933, Lon: -86.8700},
	{Zip: "37218", Name: "MetroCenter", Lat: 36.1650, Lon: -86.8350},
	{Zip: "37219", Name: "Downtown", Lat: 36.1600, Lon: -86.7750},
	{Zip: "37220", Name: "Green Hills/Buena Vista", Lat: 36.1117, Lon: -86.8033},
	{Zip: "37221", Name: "Hendersonville", Lat: 36.3050, Lon: -86.6250},
	{Zip: "37222", Name: "Smyrna/Lavergne", Lat: 35.9933, Lon: -86.5883},
	{Zip: "37224", Name: "Murfreesboro Pike", Lat: 36.0550, Lon: -86.6750},
	{Zip: "37228", Name: "Airport/Berry Hill", Lat: 36.1250, Lon: -86.6880},
	{Zip: "37229", Name: "Goodlettsville", Lat: 36.3167, Lon: -86.6950},
	{Zip: "37230", Name: "Hermitage/Donelson", Lat: 36.0933, Lon: -86.6580},
	{Zip: "37231", Name: "Antioch", Lat: 36.0433, Lon: -86.6980},
	{Zip: "37232", Name: "Madison", Lat: 36.1933, Lon: -86.7333},
	{Zip: "37235", Name: "Glencliff", Lat: 36.0700, Lon: -86.8150},
	{Zip: "37238", Name: "Downtown", Lat: 36.1600, Lon: -86.7700},
}

// ZipRegistry maps zip codes to neighborhoods. It is immutable after construction.
type ZipRegistry struct {
	records []ZipRecord
	byZip   map[string]ZipRecord
}

// NewZipRegistry builds a registry from records. Later duplicates of a zip are ignored.
func NewZipRegistry(records []ZipRecord) *ZipRegistry {
	r := &ZipRegistry{
		records: make([]ZipRecord, 0, len(records)),
		byZip:   make(map[string]ZipRecord, len(records)),
	}
	for _, rec := range records {
		if _, dup := r.byZip[rec.Zip]; dup {
			continue
		}
		r.records = append(r.records, rec)
		r.byZip[rec.Zip] = rec
	}
	return r
}

var defaultRegistry = NewZipRegistry(NashvilleZipCodes)

// DefaultRegistry returns the registry of Nashville zip codes.
func DefaultRegistry() *ZipRegistry {
	return defaultRegistry
}

// Records returns a copy of the registered records in registration order.
func (r *ZipRegistry) Records() []ZipRecord {
	out := make([]ZipRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of registered zips.
func (r *ZipRegistry) Len() int {
	return len(r.records)
}

// LookupName returns the neighborhood registered for the first five characters
// of zip. Unregistered zips are returned as given (truncated); an empty zip
// yields UnknownArea.
func (r *ZipRegistry) LookupName(zip string) string {
	if zip == "" {
		return UnknownArea
	}
	if len(zip) > 5 {
		zip = zip[:5]
	}
	if rec, ok := r.byZip[zip]; ok {
		return rec.Name
	}
	return zip
}

// ClosestZip returns the registered zip whose centroid is nearest to (lat, lon)
// by planar Euclidean distance on raw degrees. The first minimum in
// registration order wins. It reports false only for an empty registry.
func (r *ZipRegistry) ClosestZip(lat, lon float64) (string, bool) {
	closest := ""
	minDistance := math.Inf(1)
	for _, rec := range r.records {
		d := math.Sqrt(math.Pow(rec.Lat-lat, 2) + math.Pow(rec.Lon-lon, 2))
		if d < minDistance {
			minDistance = d
			closest = rec.Zip
		}
	}
	return closest, closest != ""
}
