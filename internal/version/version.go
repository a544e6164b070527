// Package version carries build identification shared by the CLI and the HTTP API.
package version

// ServiceName identifies the proxy in health and discovery payloads.
const ServiceName = "openbanking-proxy"

// Version is overridden at build time with -ldflags "-X .../version.Version=...".
var Version = "1.0.0"
