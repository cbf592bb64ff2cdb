package game

// transitions lists the legal unit status changes.
var transitions = map[UnitStatus][]UnitStatus{
	StatusIdle:       {StatusMoving, StatusPreparing},
	StatusMoving:     {StatusIdle},
	StatusPreparing:  {StatusIdle, StatusRegrouping},
	StatusRegrouping: {StatusIdle},
}

// CanTransition reports whether a unit may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to UnitStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AcceptsOrders reports whether a unit in this status can take a new
// declaration without first being cancelled.
func (s UnitStatus) AcceptsOrders() bool {
	return s == StatusIdle
}

// Cancellable reports whether a declared intent can still be withdrawn.
func (s UnitStatus) Cancellable() bool {
	return s == StatusMoving || s == StatusPreparing
}
