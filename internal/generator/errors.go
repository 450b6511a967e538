package generator

import "errors"

// ErrServiceFault is returned by Attributes.On when the device reports a
// fault or lost-communication condition. It is domain state, not a failure
// of the bridge.
var ErrServiceFault = errors.New("generator: service fault")
