package device

import (
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes derived identifiers to this bridge.
var idNamespace = uuid.MustParse("6f3a1c2e-8b4d-5e7f-9a01-c2d3e4f5a6b7")

// idPrefix keeps derived identifiers distinct from other integrations that
// might hash the same vendor ids into the same namespace.
const idPrefix = "genlink:"

// DeriveID returns the stable registry identifier for a vendor device id.
// The same vendor id always yields the same identifier.
func DeriveID(vendorID string) string {
	return uuid.NewSHA1(idNamespace, []byte(idPrefix+vendorID)).String()
}

// validVendorID reports whether a vendor id is usable as an identity seed.
func validVendorID(vendorID string) bool {
	return strings.TrimSpace(vendorID) != ""
}
