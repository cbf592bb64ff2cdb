package orders

import (
	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/supply"
	"github.com/talgya/hexfront/internal/world"
	"github.com/talgya/hexfront/internal/zoc"
)

// Deploy raises a one-step unit on an owned, in-supply planet or station
// hex that is not occupied. The unit starts IDLE with full AP and MP.
func Deploy(s *game.Snapshot, player game.PlayerID, typ catalog.TypeID, at world.HexCoord) (*game.Diff, game.UnitID, error) {
	if err := requireActive(s); err != nil {
		return nil, "", err
	}
	if _, err := activePlayer(s, player); err != nil {
		return nil, "", err
	}
	t, err := s.Catalog.Get(typ)
	if err != nil {
		return nil, "", &RejectError{Reason: ReasonNotDeployable, Err: err}
	}
	h := s.Hex(at)
	if h == nil {
		return nil, "", reject(ReasonUnknownEntity, "hex %v", at)
	}
	if h.Owner != player {
		return nil, "", reject(ReasonNotOwner, "hex %v", at)
	}
	if !deployPoint(s, player, at) {
		return nil, "", reject(ReasonNotDeployable, "no in-supply planet or station at %v", at)
	}
	if h.UnitID != "" {
		return nil, "", reject(ReasonOccupied, "hex %v holds unit %s", at, h.UnitID)
	}

	after := s.Clone()
	if err := spend(after.Players[player], t.DeployCost); err != nil {
		return nil, "", err
	}
	id := game.UnitID(game.NewID())
	u := &game.Unit{
		ID:       id,
		Owner:    player,
		Type:     typ,
		Location: at,
		Steps:    []game.Step{{}},
		Status:   game.StatusIdle,
		AP:       t.MaxAP,
		MP:       t.MaxMP,
		Supply:   game.SupplyState{InSupply: true},
	}
	after.Units[id] = u
	after.Hexes[at].UnitID = id
	zoc.Project(after, u)
	return game.ComputeDiff(s, after), id, nil
}

func deployPoint(s *game.Snapshot, player game.PlayerID, at world.HexCoord) bool {
	if p := s.PlanetAt(at); p != nil && p.Owner == player && p.Supply.InSupply {
		return true
	}
	if st := s.StationAt(at); st != nil && st.Owner == player && st.Supply.InSupply {
		return true
	}
	return false
}

// Upgrade adds a plain step to an IDLE, in-supply unit, or with a
// specialist set, trains the first plain step in that role.
func Upgrade(s *game.Snapshot, player game.PlayerID, id game.UnitID, kind game.Specialist) (*game.Diff, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	if _, err := activePlayer(s, player); err != nil {
		return nil, err
	}
	u, err := ownedUnit(s, player, id)
	if err != nil {
		return nil, err
	}
	if err := acceptsOrders(u); err != nil {
		return nil, err
	}
	if !u.Supply.InSupply {
		return nil, reject(ReasonNotInSupply, "unit %s", id)
	}

	after := s.Clone()
	w := after.Units[id]
	rules := s.Game.Settings.Rules
	if kind == game.SpecialistNone {
		if limit := s.UnitType(u).MaxSteps; len(u.Steps) >= limit {
			return nil, reject(ReasonStepLimit, "unit %s already has %d steps", id, limit)
		}
		if err := spend(after.Players[player], rules.UpgradeStepCost); err != nil {
			return nil, err
		}
		w.Steps = append(w.Steps, game.Step{})
		return game.ComputeDiff(s, after), nil
	}

	idx := -1
	for i, st := range w.Steps {
		if st.Specialist == game.SpecialistNone {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, reject(ReasonNoPlainStep, "unit %s has no untrained step", id)
	}
	if err := spend(after.Players[player], rules.UpgradeSpecialistCost); err != nil {
		return nil, err
	}
	w.Steps[idx].Specialist = kind
	return game.ComputeDiff(s, after), nil
}

// Scrap disbands the last step of an IDLE unit. Scrapping the last step
// removes the unit and its zone of control.
func Scrap(s *game.Snapshot, player game.PlayerID, id game.UnitID) (*game.Diff, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	u, err := ownedUnit(s, player, id)
	if err != nil {
		return nil, err
	}
	if err := acceptsOrders(u); err != nil {
		return nil, err
	}

	after := s.Clone()
	w := after.Units[id]
	if len(w.Steps) > 1 {
		w.Steps = w.Steps[:len(w.Steps)-1]
		return game.ComputeDiff(s, after), nil
	}
	zoc.Withdraw(after, w)
	after.RemoveUnit(id)
	return game.ComputeDiff(s, after), nil
}

// BuildStation places a station on an owned hex inside the player's current
// supply network. Planet hexes and hexes that already hold a station are
// refused.
func BuildStation(s *game.Snapshot, player game.PlayerID, at world.HexCoord) (*game.Diff, game.StationID, error) {
	if err := requireActive(s); err != nil {
		return nil, "", err
	}
	if _, err := activePlayer(s, player); err != nil {
		return nil, "", err
	}
	h := s.Hex(at)
	if h == nil {
		return nil, "", reject(ReasonUnknownEntity, "hex %v", at)
	}
	if h.Owner != player {
		return nil, "", reject(ReasonNotOwner, "hex %v", at)
	}
	if h.PlanetID != "" || h.StationID != "" {
		return nil, "", reject(ReasonOccupied, "hex %v already has a planet or station", at)
	}
	nets := supply.Compute(s, supply.PolicyFrom(s.Game.Settings.Rules))
	if !nets.Supplied(player, at) {
		return nil, "", reject(ReasonNotInSupply, "hex %v", at)
	}

	after := s.Clone()
	if err := spend(after.Players[player], s.Game.Settings.Rules.StationCost); err != nil {
		return nil, "", err
	}
	id := game.StationID(game.NewID())
	after.Stations[id] = &game.Station{
		ID:       id,
		Owner:    player,
		Location: at,
		Supply:   game.SupplySource{InSupply: true},
		Counters: game.SupplyState{InSupply: true},
	}
	after.Hexes[at].StationID = id
	return game.ComputeDiff(s, after), id, nil
}
