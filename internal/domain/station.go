package domain

// StationRecord is one dock location from a city's station feed. Only the
// coordinates participate in cleaning; name and ID are kept for diagnostics.
type StationRecord struct {
	ID   string
	Name string
	Lat  float64
	Lng  float64
}
