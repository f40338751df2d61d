package importer

type location struct {
	Lat    float64
	Lng    float64
	Region string
}

// knownVenues is the fixed set of venues the catalog ingests.
// Venue entries with any other id are skipped.
var knownVenues = map[string]location{
	"100": {Lat: 22.4475, Lng: 114.1699, Region: "newterritories"},
	"101": {Lat: 22.4439, Lng: 114.0195, Region: "newterritories"},
	"102": {Lat: 22.3193, Lng: 114.1884, Region: "kowloon"},
	"103": {Lat: 22.2783, Lng: 114.1747, Region: "hongkong"},
	"104": {Lat: 22.3408, Lng: 114.2095, Region: "hongkong"},
	"105": {Lat: 22.2994, Lng: 114.1719, Region: "kowloon"},
	"106": {Lat: 22.3371, Lng: 114.1558, Region: "kowloon"},
	"107": {Lat: 22.3247, Lng: 114.1975, Region: "kowloon"},
	"108": {Lat: 22.3845, Lng: 114.1168, Region: "newterritories"},
	"109": {Lat: 22.3763, Lng: 114.1779, Region: "kowloon"},
}
