package config

import "sort"

// StationSourceType selects how a city's station feed is fetched and parsed.
type StationSourceType string

const (
	// StationSourceGBFS is a GBFS station_information JSON feed.
	StationSourceGBFS StationSourceType = "gbfs"
	// StationSourceSODA is a Socrata open-data JSON endpoint with paging.
	StationSourceSODA StationSourceType = "soda"
)

// CitySource describes where a city's raw data comes from.
type CitySource struct {
	Name string

	// Trip archives: <TripBaseURL><month>-<TripArchiveSuffix>, a zip
	// containing the monthly trip CSV.
	TripBaseURL       string
	TripArchiveSuffix string

	StationEndpoint string
	StationSource   StationSourceType

	// Representative coordinate for the daily weather lookup.
	WeatherLat float64
	WeatherLng float64
}

// CitySources is the supported city table. The four systems share a trip
// schema, which is what makes a single cleaning pipeline possible.
var CitySources = map[string]CitySource{
	"NYC": {
		Name:              "NYC",
		TripBaseURL:       "https://s3.amazonaws.com/tripdata/",
		TripArchiveSuffix: "citibike-tripdata.zip",
		StationEndpoint:   "https://gbfs.citibikenyc.com/gbfs/en/station_information.json",
		StationSource:     StationSourceGBFS,
		WeatherLat:        40.7128,
		WeatherLng:        -74.0060,
	},
	"Chicago": {
		Name:              "Chicago",
		TripBaseURL:       "https://divvy-tripdata.s3.amazonaws.com/",
		TripArchiveSuffix: "divvy-tripdata.zip",
		StationEndpoint:   "https://data.cityofchicago.org/resource/bbyy-e7gq.json",
		StationSource:     StationSourceSODA,
		WeatherLat:        41.8781,
		WeatherLng:        -87.6298,
	},
	"Boston": {
		Name:              "Boston",
		TripBaseURL:       "https://s3.amazonaws.com/hubway-data/",
		TripArchiveSuffix: "bluebikes-tripdata.zip",
		StationEndpoint:   "https://gbfs.bluebikes.com/gbfs/en/station_information.json",
		StationSource:     StationSourceGBFS,
		WeatherLat:        42.3601,
		WeatherLng:        -71.0589,
	},
	"Capital": {
		Name:              "Capital",
		TripBaseURL:       "https://s3.amazonaws.com/capitalbikeshare-data/",
		TripArchiveSuffix: "capitalbikeshare-tripdata.zip",
		StationEndpoint:   "https://gbfs.capitalbikeshare.com/gbfs/en/station_information.json",
		StationSource:     StationSourceGBFS,
		WeatherLat:        38.9072,
		WeatherLng:        -77.0369,
	},
}

// DefaultCityNames returns the supported city names in stable order.
func DefaultCityNames() []string {
	names := make([]string, 0, len(CitySources))
	for name := range CitySources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
