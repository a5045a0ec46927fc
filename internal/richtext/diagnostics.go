package richtext

import "fmt"

// DiagnosticKind classifies a problem found while decoding or rendering.
type DiagnosticKind string

const (
	DiagEmptyContent     DiagnosticKind = "empty-content"
	DiagInvalidJSON      DiagnosticKind = "invalid-json"
	DiagMalformedNode    DiagnosticKind = "malformed-node"
	DiagUnknownNode      DiagnosticKind = "unknown-node"
	DiagMissingBlockType DiagnosticKind = "missing-block-type"
	DiagUnknownBlock     DiagnosticKind = "unknown-block"
	DiagLegacyBlock      DiagnosticKind = "legacy-block"
	DiagUnresolvedMedia  DiagnosticKind = "unresolved-media"
	DiagInvalidMedia     DiagnosticKind = "invalid-media"
	DiagRenderFailed     DiagnosticKind = "render-failed"
)

// Diagnostic is a single warning. Path is a JSONPath-like location in the
// input ("$.root.children[2].fields").
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Path    string         `json:"path"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Path, d.Message)
}

// Diagnostics is the list returned alongside a decode or render.
type Diagnostics []Diagnostic

// Has reports whether any diagnostic of kind is present.
func (ds Diagnostics) Has(kind DiagnosticKind) bool {
	return ds.Count(kind) > 0
}

// Count returns how many diagnostics of kind are present.
func (ds Diagnostics) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
