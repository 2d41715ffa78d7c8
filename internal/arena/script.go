package arena

import (
	"github.com/cory-johannsen/warchief/internal/game/combat"
	"github.com/cory-johannsen/warchief/internal/scripting"
)

// ScriptInfo converts a combatant snapshot into the view Lua hooks receive.
func ScriptInfo(snap combat.Snapshot) *scripting.CombatantInfo {
	info := &scripting.CombatantInfo{
		ID:        snap.ID,
		Name:      snap.Name,
		Side:      string(snap.Side),
		Health:    snap.Health,
		MaxHealth: snap.MaxHealth,
		Dead:      snap.Dead,
	}
	for _, e := range snap.Effects {
		info.Effects = append(info.Effects, e.Kind.String())
	}
	return info
}

// ScriptLookup returns a scripting.Manager GetCombatant callback backed by
// the runner's live sessions.
func (r *Runner) ScriptLookup() func(id string) *scripting.CombatantInfo {
	return func(id string) *scripting.CombatantInfo {
		snap, ok := r.Combatant(id)
		if !ok {
			return nil
		}
		return ScriptInfo(snap)
	}
}
