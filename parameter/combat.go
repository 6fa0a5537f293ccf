package parameter

// Damage
const (
	// WallHitPenalty is the health removed by each boundary collision
	WallHitPenalty = 10

	// HealthReportLimit is the number of entities listed on the health line
	HealthReportLimit = 10
)
