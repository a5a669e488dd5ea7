package clean

import "github.com/couchcryptid/bikeshare-trip-etl/internal/domain"

// Violation describes one schema-contract failure in a cleaned collection.
type Violation struct {
	RideID string
	Rule   string
	Detail string
}

// Validation rule names, used as the metric label.
const (
	RuleRideIDMissing   = "ride_id_missing"
	RuleRideIDDuplicate = "ride_id_duplicate"
	RuleRideableType    = "rideable_type_missing"
	RuleTimestamp       = "timestamp_missing"
	RuleCoordinate      = "coordinate_missing"
	RuleMemberCasual    = "member_casual_invalid"
)

// ValidateTrips certifies the cleaned-collection schema contract: unique
// non-empty ride_id, non-empty rideable_type, present timestamps and
// coordinates, member_casual in {member, casual}. Station name/id fields are
// nullable and not checked.
//
// Violations are reported, not enforced: the caller logs them and still
// emits the collection downstream.
func (c *Cleaner) ValidateTrips(city string, trips []domain.TripRecord) []Violation {
	var violations []Violation
	report := func(rideID, rule, detail string) {
		violations = append(violations, Violation{RideID: rideID, Rule: rule, Detail: detail})
		c.metrics.ValidationViolations.WithLabelValues(city, rule).Inc()
		c.logger.Debug("schema violation",
			"city", city, "ride_id", rideID, "rule", rule, "detail", detail)
	}

	seen := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		switch {
		case t.RideID == "":
			report(t.RideID, RuleRideIDMissing, "empty ride_id")
		default:
			if _, dup := seen[t.RideID]; dup {
				report(t.RideID, RuleRideIDDuplicate, "ride_id occurs more than once")
			}
			seen[t.RideID] = struct{}{}
		}

		if t.RideableType == "" {
			report(t.RideID, RuleRideableType, "empty rideable_type")
		}
		if t.StartedAt.IsZero() {
			report(t.RideID, RuleTimestamp, "started_at missing")
		}
		if t.EndedAt.IsZero() {
			report(t.RideID, RuleTimestamp, "ended_at missing")
		}
		if !t.Start.Valid {
			report(t.RideID, RuleCoordinate, "start coordinate missing")
		}
		if !t.End.Valid {
			report(t.RideID, RuleCoordinate, "end coordinate missing")
		}
		if t.MemberCasual != "member" && t.MemberCasual != "casual" {
			report(t.RideID, RuleMemberCasual, "member_casual must be member or casual")
		}
	}

	return violations
}
