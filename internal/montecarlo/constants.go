package montecarlo

// Physical constants in CGS units.
const (
	// SpeedOfLight in cm/s.
	SpeedOfLight = 2.99792458e10
	// SigmaThomson is the Thomson scattering cross-section in cm^2.
	SigmaThomson = 6.652486e-25
)

// Miss is the sentinel distance returned for a boundary or line the
// packet cannot reach along its current direction.
const Miss = 1e99

// closeLineThreshold is the relative frequency separation below which
// two adjacent lines are treated as coincident. The second line is
// then processed at zero distance, which keeps the line-distance
// computation from going negative through float cancellation.
const closeLineThreshold = 1e-7
