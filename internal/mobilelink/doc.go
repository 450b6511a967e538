// Package mobilelink is the vendor cloud client that fetches generator status.
//
// The vendor exposes one listing endpoint per API generation:
//
//	GET {base_url}/api/v1/apparatus/list   indicator-light payloads
//	GET {base_url}/api/v2/apparatus/list   ordinal status-code payloads
//
// Both return a JSON array of apparatus objects. The client authenticates
// with an OAuth2 password grant and reuses the token until it expires.
// Apparatus objects are loosely typed (ids and signal readings arrive as
// numbers or strings depending on firmware), so they are decoded through
// mapstructure with weak typing rather than straight into structs.
//
// The payload shape tag on each generator.RawStatus comes from the configured
// API version, never from which fields happen to be present.
//
// Only a body that is not a JSON array fails a fetch. An item that cannot be
// decoded, such as one without an apparatusId, is logged and skipped.
//
// Tests use testify's require and assert against an httptest vendor server.
package mobilelink
