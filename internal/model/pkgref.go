package model

import "strings"

// PackageRef identifies the package a wiki page belongs to.
// It is supplied at session construction and never mutated afterwards.
type PackageRef struct {
	Namespace string
	Name      string
}

func (r PackageRef) String() string {
	return r.Namespace + "/" + r.Name
}

// ParsePackageRef splits "namespace/name". The boolean reports whether
// both parts were present and non-empty.
func ParsePackageRef(s string) (PackageRef, bool) {
	ns, name, ok := strings.Cut(s, "/")
	if !ok || ns == "" || name == "" {
		return PackageRef{}, false
	}
	return PackageRef{Namespace: ns, Name: name}, true
}
