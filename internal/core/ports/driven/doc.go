// Package driven defines the outbound ports of the core: the finder
// contract every platform client satisfies, the media transport, and
// the storage interfaces. The core consumes these polymorphically and
// is agnostic to transport protocol, auth scheme or response encoding.
package driven
