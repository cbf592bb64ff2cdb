package game

// Rules are the tunable policies of a match.
type Rules struct {
	// SupplyRange is the hop radius supply propagates from a root or
	// station through owned territory. 0 means unlimited.
	SupplyRange int `json:"supply_range" mapstructure:"supplyRange"`

	// Consecutive out-of-supply evaluations after which a unit or station
	// is removed by attrition.
	AttritionThreshold int `json:"attrition_threshold" mapstructure:"attritionThreshold"`

	RegroupTicks uint64 `json:"regroup_ticks" mapstructure:"regroupTicks"`
	PrepareTicks uint64 `json:"prepare_ticks" mapstructure:"prepareTicks"`

	PlanetVision  int `json:"planet_vision" mapstructure:"planetVision"`
	StationVision int `json:"station_vision" mapstructure:"stationVision"`

	VictoryPerPlanet   int `json:"victory_per_planet" mapstructure:"victoryPerPlanet"`
	PrestigePerPlanet  int `json:"prestige_per_planet" mapstructure:"prestigePerPlanet"`
	PrestigePerStation int `json:"prestige_per_station" mapstructure:"prestigePerStation"`
	AttritionPenalty   int `json:"attrition_penalty" mapstructure:"attritionPenalty"`

	StationCost           int `json:"station_cost" mapstructure:"stationCost"`
	UpgradeStepCost       int `json:"upgrade_step_cost" mapstructure:"upgradeStepCost"`
	UpgradeSpecialistCost int `json:"upgrade_specialist_cost" mapstructure:"upgradeSpecialistCost"`
}

// DefaultRules returns the standard policy set.
func DefaultRules() Rules {
	return Rules{
		SupplyRange:           0,
		AttritionThreshold:    3,
		RegroupTicks:          1,
		PrepareTicks:          1,
		PlanetVision:          2,
		StationVision:         1,
		VictoryPerPlanet:      1,
		PrestigePerPlanet:     2,
		PrestigePerStation:    1,
		AttritionPenalty:      2,
		StationCost:           5,
		UpgradeStepCost:       3,
		UpgradeSpecialistCost: 4,
	}
}
