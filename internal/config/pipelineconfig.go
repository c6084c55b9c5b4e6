package config

import (
	"fmt"

	"ctlmapper/internal/layermask"
	"ctlmapper/internal/stage"
)

// PipelineBinding pairs one closed pipeline with the layer mask it fires
// under (§3 Config: "pipelines: [(LayerMask, terminal pipeline)]").
type PipelineBinding struct {
	Mask     layermask.Mask
	Pipeline stage.Stage[stage.Unit]
}

// Config is the fully evaluated result of a script: declared layers in
// declaration order, every top-level closed pipeline, and every knob the
// script registered.
type Config struct {
	Layers    []string
	Pipelines []PipelineBinding
	Knobs     []Knob
}

// BuildConfig flattens a script's top-level evaluation result into a
// Config. Nothing values (the `print` builtin's return) are ignored;
// anything else that isn't a closed pipeline is a type error.
func BuildConfig(result Value, ctx *Context) (Config, error) {
	var bindings []PipelineBinding
	for _, v := range flatten(result) {
		switch v.Kind {
		case KindCompletePipeline:
			bindings = append(bindings, PipelineBinding{Mask: v.CompleteMask, Pipeline: v.Complete})
		case KindNothing:
			// side-effecting top-level call (e.g. print); contributes no pipeline
		default:
			return Config{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
				Message: fmt.Sprintf("top-level config must evaluate to closed pipelines, got %s", v.Kind)}
		}
	}
	return Config{Layers: ctx.Layers, Pipelines: bindings, Knobs: ctx.Knobs}, nil
}
