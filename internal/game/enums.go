package game

import "fmt"

// enumNames maps a small integer enum to its wire names.
type enumNames []string

func (n enumNames) name(v uint8, kind string) string {
	if int(v) < len(n) {
		return n[v]
	}
	return fmt.Sprintf("%s(%d)", kind, v)
}

func (n enumNames) marshal(v uint8, kind string) ([]byte, error) {
	if int(v) >= len(n) {
		return nil, fmt.Errorf("unknown %s %d", kind, v)
	}
	return []byte(n[v]), nil
}

func (n enumNames) parse(s, kind string) (uint8, error) {
	for i, name := range n {
		if name == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

// UnitStatus is a unit's position in the order state machine.
type UnitStatus uint8

const (
	StatusIdle UnitStatus = iota
	StatusMoving
	StatusPreparing
	StatusRegrouping
)

var unitStatusNames = enumNames{"IDLE", "MOVING", "PREPARING", "REGROUPING"}

func (s UnitStatus) String() string { return unitStatusNames.name(uint8(s), "status") }

func (s UnitStatus) MarshalText() ([]byte, error) { return unitStatusNames.marshal(uint8(s), "status") }

func (s *UnitStatus) UnmarshalText(b []byte) error {
	v, err := unitStatusNames.parse(string(b), "status")
	*s = UnitStatus(v)
	return err
}

// Operation is the kind of a declared attack.
type Operation uint8

const (
	OpStandard Operation = iota
	OpFeint
	OpSuppressiveFire
)

var operationNames = enumNames{"STANDARD", "FEINT", "SUPPRESSIVE_FIRE"}

func (o Operation) String() string { return operationNames.name(uint8(o), "operation") }

func (o Operation) MarshalText() ([]byte, error) { return operationNames.marshal(uint8(o), "operation") }

func (o *Operation) UnmarshalText(b []byte) error {
	v, err := operationNames.parse(string(b), "operation")
	*o = Operation(v)
	return err
}

// ParseOperation returns the operation for its wire name.
func ParseOperation(s string) (Operation, error) {
	v, err := operationNames.parse(s, "operation")
	return Operation(v), err
}

// Specialist tags a step with a combat role.
type Specialist uint8

const (
	SpecialistNone Specialist = iota
	SpecialistArtillery
	SpecialistArmor
	SpecialistEngineer
	SpecialistRecon
)

var specialistNames = enumNames{"", "ARTILLERY", "ARMOR", "ENGINEER", "RECON"}

func (s Specialist) String() string {
	if s == SpecialistNone {
		return "NONE"
	}
	return specialistNames.name(uint8(s), "specialist")
}

func (s Specialist) MarshalText() ([]byte, error) {
	return specialistNames.marshal(uint8(s), "specialist")
}

func (s *Specialist) UnmarshalText(b []byte) error {
	v, err := specialistNames.parse(string(b), "specialist")
	*s = Specialist(v)
	return err
}

// ParseSpecialist returns the specialist for its wire name ("" is none).
func ParseSpecialist(s string) (Specialist, error) {
	v, err := specialistNames.parse(s, "specialist")
	return Specialist(v), err
}

// GameStatus is the lifecycle state of a match.
type GameStatus uint8

const (
	GamePending GameStatus = iota
	GameActive
	GameCompleted
)

var gameStatusNames = enumNames{"PENDING", "ACTIVE", "COMPLETED"}

func (s GameStatus) String() string { return gameStatusNames.name(uint8(s), "game status") }

func (s GameStatus) MarshalText() ([]byte, error) {
	return gameStatusNames.marshal(uint8(s), "game status")
}

func (s *GameStatus) UnmarshalText(b []byte) error {
	v, err := gameStatusNames.parse(string(b), "game status")
	*s = GameStatus(v)
	return err
}

// PlayerStatus tracks whether a player is still in the match.
type PlayerStatus uint8

const (
	PlayerActive PlayerStatus = iota
	PlayerDefeated
)

var playerStatusNames = enumNames{"ACTIVE", "DEFEATED"}

func (s PlayerStatus) String() string { return playerStatusNames.name(uint8(s), "player status") }

func (s PlayerStatus) MarshalText() ([]byte, error) {
	return playerStatusNames.marshal(uint8(s), "player status")
}

func (s *PlayerStatus) UnmarshalText(b []byte) error {
	v, err := playerStatusNames.parse(string(b), "player status")
	*s = PlayerStatus(v)
	return err
}

// Outcome summarises a combat resolution.
type Outcome uint8

const (
	OutcomeAttackerWon Outcome = iota
	OutcomeDefenderHeld
	OutcomeStalemate
	OutcomeFeint
	OutcomeSuppressed
)

var outcomeNames = enumNames{"ATTACKER_WON", "DEFENDER_HELD", "STALEMATE", "FEINT", "SUPPRESSED"}

func (o Outcome) String() string { return outcomeNames.name(uint8(o), "outcome") }

func (o Outcome) MarshalText() ([]byte, error) { return outcomeNames.marshal(uint8(o), "outcome") }

func (o *Outcome) UnmarshalText(b []byte) error {
	v, err := outcomeNames.parse(string(b), "outcome")
	*o = Outcome(v)
	return err
}
