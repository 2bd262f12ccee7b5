// Package codegen defines the contract shared by the target backends.
package codegen

import "github.com/rxtech-lab/argo-codegen/internal/ir"

// Target names an output language.
type Target string

const (
	// TargetMQL is the bar-array target.
	TargetMQL Target = "mql"
	// TargetBacktrader is the attribute-object target.
	TargetBacktrader Target = "backtrader"
)

// Targets lists every supported target.
var Targets = []Target{TargetMQL, TargetBacktrader}

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	return t == TargetMQL || t == TargetBacktrader
}

// File is one rendered source file.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Artifact is the rendered output of one target.
type Artifact struct {
	Target Target `json:"target"`
	Files  []File `json:"files"`
}

// Emitter lowers a program into a target tree and renders it.
type Emitter interface {
	Target() Target
	Emit(program *ir.Program) (*Artifact, error)
}
