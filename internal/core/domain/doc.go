// Package domain contains the core business entities for boorufind.
//
// The central types are Post, Comment and Note: normalized records that
// every finder produces regardless of the platform it talks to. A record's
// identity is only unique within its Source; cross-source ID collisions are
// expected and not an error.
package domain
