// Package registry implements the static modeId -> ordered step list
// mapping: a closed enumeration of nine agent modes, each a sequence of
// steps from package steps. Unknown modeIds fall back to "standard".
package registry
