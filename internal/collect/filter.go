package collect

import "slices"

// InScope returns true when ns is within the scan's namespace scope.
// If include is empty, all namespaces are in scope.
func InScope(ns string, include []string) bool {
	if len(include) == 0 {
		return true
	}
	return slices.Contains(include, ns)
}
