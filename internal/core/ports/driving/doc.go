// Package driving defines the inbound ports of the core: the
// aggregation, bulk fetch and download surfaces consumed by the CLI.
package driving
