package ai

// Profile is the temperament of one AI driver.
type Profile struct {
	ReactionTimeMin float64 `json:"reaction_time_min"` // s
	ReactionTimeMax float64 `json:"reaction_time_max"` // s
	FollowDistance  float64 `json:"follow_distance"`   // m
	CruiseSpeed     float64 `json:"cruise_speed"`      // m/s
	SpeedGain       float64 `json:"speed_gain"`        // pedal per m/s of speed error
	MaxSteerAngle   float64 `json:"max_steer_angle"`   // degrees of bearing that map to full lock
	Lookahead       float64 `json:"lookahead"`         // m along the route
	ParkDistance    float64 `json:"park_distance"`     // m before the end of an open route
	DriftTendency   float64 `json:"drift_tendency"`    // chance per Cruise decision, 0 to 1
	DriftTime       float64 `json:"drift_time"`        // s
	Patience        float64 `json:"patience"`          // s of Follow before overtaking
	OvertakeTime    float64 `json:"overtake_time"`     // s
}

// DefaultProfile is a calm commuter.
func DefaultProfile() Profile {
	return Profile{
		ReactionTimeMin: 0.2,
		ReactionTimeMax: 0.5,
		FollowDistance:  15,
		CruiseSpeed:     14,
		SpeedGain:       0.25,
		MaxSteerAngle:   35,
		Lookahead:       8,
		ParkDistance:    5,
		DriftTendency:   0,
		DriftTime:       1.5,
		Patience:        4,
		OvertakeTime:    3,
	}
}

// withDefaults fills zero fields from DefaultProfile. DriftTendency is kept
// as given since zero disables drifting.
func (p Profile) withDefaults() Profile {
	d := DefaultProfile()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&p.ReactionTimeMin, d.ReactionTimeMin)
	fill(&p.ReactionTimeMax, d.ReactionTimeMax)
	if p.ReactionTimeMax < p.ReactionTimeMin {
		p.ReactionTimeMax = p.ReactionTimeMin
	}
	fill(&p.FollowDistance, d.FollowDistance)
	fill(&p.CruiseSpeed, d.CruiseSpeed)
	fill(&p.SpeedGain, d.SpeedGain)
	fill(&p.MaxSteerAngle, d.MaxSteerAngle)
	fill(&p.Lookahead, d.Lookahead)
	fill(&p.ParkDistance, d.ParkDistance)
	fill(&p.DriftTime, d.DriftTime)
	fill(&p.Patience, d.Patience)
	fill(&p.OvertakeTime, d.OvertakeTime)
	return p
}
