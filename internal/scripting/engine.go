package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/lanerunner/lanerunner/internal/game"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable game rules.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	scoreCtx *lua.LTable // reused by ScoreDelta every tick
	fallback game.LinearScore
	failed   bool // a Lua error has already been logged
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, scoreCtx: vm.NewTable()}

	// Shared helpers first, then rule scripts
	for _, sub := range []string{"core", "score"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	if !e.HasFunc("calc_score_delta") {
		log.Info("lua calc_score_delta not defined, using linear score")
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasFunc reports whether a global Lua function is defined.
func (e *Engine) HasFunc(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// ScoreDelta calls the Lua calc_score_delta function. A missing function,
// a Lua error or a non-finite result falls back to the linear rule so a
// broken script never stalls the tick.
func (e *Engine) ScoreDelta(rate, multiplier, dt float64) float64 {
	if !e.HasFunc("calc_score_delta") {
		return e.fallback.ScoreDelta(rate, multiplier, dt)
	}

	t := e.scoreCtx
	t.RawSetString("rate", lua.LNumber(rate))
	t.RawSetString("multiplier", lua.LNumber(multiplier))
	t.RawSetString("dt", lua.LNumber(dt))

	v, err := e.callNumberFunc("calc_score_delta", t)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		if !e.failed {
			e.failed = true
			e.log.Error("lua calc_score_delta failed, using linear score",
				zap.Float64("result", v), zap.Error(err))
		}
		return e.fallback.ScoreDelta(rate, multiplier, dt)
	}
	return v
}

// --- Lua helpers ---

// callNumberFunc calls a Lua function and returns its numeric result.
func (e *Engine) callNumberFunc(name string, args ...lua.LValue) (float64, error) {
	fn := e.vm.GetGlobal(name)
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return 0, fmt.Errorf("lua %s: %w", name, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("lua %s returned %s, want number", name, result.Type())
	}
	return float64(n), nil
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
