// Package generator normalises vendor generator status payloads.
//
// The vendor cloud has shipped two incompatible payload shapes over its
// lifetime:
//
//   - v1 "light" payloads carry four independent indicator flags
//     (green = ready, yellow = warning, red = fault, blue = running).
//   - v2 payloads carry a single 1-indexed ordinal status code.
//
// RawStatus models both as a tagged variant; Translate branches on the tag
// and produces an Attributes record that the rest of the system consumes
// without knowing which shape it came from.
//
// # Fault precedence
//
// A faulted device still reports its direct flags (HasFault, Running,
// Charging, Reachable). Only the derived outlet reading, Attributes.On,
// refuses to answer and returns ErrServiceFault instead.
//
// # Change detection
//
// HasChanged compares a deliberately narrow set of fields so that
// cosmetic churn in vendor payloads does not cause a publish on every poll.
//
// Everything in this package is pure and safe for concurrent use.
//
// # Testing
//
// The domain packages (generator, device, discovery, mobilelink) test with
// testify's require and assert. Infrastructure, bridge and api tests use
// plain testing with t.Errorf and hand-written fakes.
package generator
