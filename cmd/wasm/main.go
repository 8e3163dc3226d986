//go:build js && wasm

// Command wasm runs the vehicle engine in the browser. It registers
//
//	runSimulation(inputJSON[, seed]) -> logJSON | {error}
//
// with the same SimulationInput/SimulationLog contract as the CLI. The
// optional seed drives AI agents that do not carry their own.
package main

import (
	"syscall/js"

	"github.com/cxd309/vehicle-engine/internal/engine"
)

func main() {
	js.Global().Set("runSimulation", js.FuncOf(runSimulation))
	select {}
}

func runSimulation(_ js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return map[string]any{"error": "runSimulation expects a JSON string"}
	}
	var opts []engine.Option
	if len(args) > 1 && args[1].Type() == js.TypeNumber && args[1].Int() > 0 {
		opts = append(opts, engine.WithSeed(uint64(args[1].Int())))
	}

	out, err := engine.RunJSON(args[0].String(), opts...)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return out
}
