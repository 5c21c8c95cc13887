package catalog

// AllStations is the wildcard station tag matching every managed station.
const AllStations = "ALL_STATIONS"

// Managed station identifiers.
const (
	StationMobil         = "MOBIL"
	StationAmocoRosedale = "AMOCO ROSEDALE"
	StationAmocoBrooklyn = "AMOCO BROOKLYN"
)

var stations = []string{
	StationMobil,
	StationAmocoRosedale,
	StationAmocoBrooklyn,
}

// Stations returns the managed station list (the wildcard excluded).
func Stations() []string {
	out := make([]string, len(stations))
	copy(out, stations)
	return out
}

// ValidStation reports whether raw names a managed station or the wildcard.
func ValidStation(raw string) bool {
	if raw == AllStations {
		return true
	}
	for _, s := range stations {
		if s == raw {
			return true
		}
	}
	return false
}
