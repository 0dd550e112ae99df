// Package idgen wraps the UUID generator so that it can be stubbed in tests.
// Identifiers produced here are opaque strings: queue message ids and the
// task ids generated by the command line runner.
package idgen
