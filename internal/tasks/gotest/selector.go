package gotest

import "strings"

// Selector scopes a test run: a package subtree and an optional test name
// pattern. It is written as "<packagePath>::<testName>"; either half may be
// empty.
type Selector struct {
	Package string
	Test    string
}

// ParseSelector splits raw on the first "::".
func ParseSelector(raw string) Selector {
	pkg, name, _ := strings.Cut(strings.TrimSpace(raw), "::")
	return Selector{Package: strings.TrimSpace(pkg), Test: strings.TrimSpace(name)}
}

// Args returns the go test target and filter arguments.
func (s Selector) Args() []string {
	target := "./..."
	if s.Package != "" {
		target = strings.TrimRight(s.Package, "/")
		if !strings.HasSuffix(target, "/...") && target != "..." {
			target += "/..."
		}
	}
	args := []string{target}
	if s.Test != "" {
		args = append(args, "-run", s.Test)
	}
	return args
}
