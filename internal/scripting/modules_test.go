package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/warchief/internal/scripting"
)

func runScript(t *testing.T, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "test.lua", luaSrc)
	scope := "modtest_" + t.Name()
	require.NoError(t, mgr.LoadScope(scope, dir, 0))
	ret, err := mgr.CallHook(scope, hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_WritesToLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core))

	runScript(t, mgr, `
		function do_log()
			engine.log.info("hello from lua")
		end
	`, "do_log")

	entries := logs.FilterMessage("hello from lua").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "lua", entries[0].ContextMap()["source"])
}

func TestEngineLog_AllLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core))

	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	levels := map[string]bool{}
	for _, e := range logs.All() {
		levels[e.Level.String()] = true
	}
	assert.True(t, levels["debug"], "expected debug log")
	assert.True(t, levels["info"], "expected info log")
	assert.True(t, levels["warn"], "expected warn log")
	assert.True(t, levels["error"], "expected error log")
}

func TestEngineCombatant_Get_NilCallback_ReturnsNil(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function get_it() return engine.combatant.get("wolf-1") end
	`, "get_it")
	assert.Equal(t, lua.LNil, ret)
}

func TestEngineCombatant_Get_UnknownID_ReturnsNil(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.GetCombatant = func(string) *scripting.CombatantInfo { return nil }
	ret := runScript(t, mgr, `
		function get_it() return engine.combatant.get("ghost") end
	`, "get_it")
	assert.Equal(t, lua.LNil, ret)
}

func TestEngineCombatant_Get_WithCallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.GetCombatant = func(id string) *scripting.CombatantInfo {
		return &scripting.CombatantInfo{
			ID: id, Name: "Grey Wolf", Side: "blue",
			Health: 42, MaxHealth: 100,
			Effects: []string{"stun", "root"},
		}
	}
	ret := runScript(t, mgr, `
		function describe(id)
			local c = engine.combatant.get(id)
			return c.name .. ":" .. c.side .. ":" .. (c.health / c.max_health) .. ":" .. #c.effects .. ":" .. c.effects[1] .. ":" .. tostring(c.dead)
		end
	`, "describe", lua.LString("wolf-1"))
	assert.Equal(t, lua.LString("Grey Wolf:blue:0.42:2:stun:false"), ret)
}

func TestProperty_CombatantHealthRoundTripsThroughLua(t *testing.T) {
	mgr, _ := newTestManager(t)
	var health float64
	mgr.GetCombatant = func(id string) *scripting.CombatantInfo {
		return &scripting.CombatantInfo{ID: id, Health: health, MaxHealth: 1000}
	}
	require.NoError(t, mgr.LoadScope("roundtrip", writeTempLua(t, "h.lua", `
		function hp(id) return engine.combatant.get(id).health end
	`), 0))
	rapid.Check(t, func(rt *rapid.T) {
		health = float64(rapid.IntRange(0, 1000).Draw(rt, "health"))
		ret, err := mgr.CallHook("roundtrip", "hp", lua.LString("x"))
		require.NoError(rt, err)
		assert.Equal(rt, lua.LNumber(health), ret)
	})
}
