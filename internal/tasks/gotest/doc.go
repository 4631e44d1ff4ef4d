// Package gotest implements the `test` task. It runs the test suite through
// gotestsum with race detection and coverage enabled, then prints the
// unweighted mean coverage across the packages the runner reported. With
// -show it also opens the HTML coverage report and always deletes the profile
// afterwards.
package gotest
