package main

import "github.com/guludo/yape/internal/target"

// targetsFromNames turns run's TARGET positional arguments into a
// target.Ref: nil (meaning "every node") when none are given, otherwise a
// sequence of name-path references.
func targetsFromNames(names []string) target.Ref {
	if len(names) == 0 {
		return nil
	}
	refs := make([]target.Ref, len(names))
	for i, n := range names {
		refs[i] = n
	}
	return target.Ref(refs)
}
