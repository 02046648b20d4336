// Package domain contains the core entities and value objects for logzship.
//
// This package has no dependencies on infrastructure concerns (HTTP,
// file system, logging) and contains only the data model of the shipper.
//
// # Entities
//
//   - [FormattedMessage]: one serialized log record, ready for transmission
//   - [Batch]: ordered messages waiting to be dispatched plus their byte size
//   - [SendRequestConfig]: immutable connection parameters of a transport
//   - [Document]: a JSON object that keeps its keys in insertion order
//   - [Secret]: an access token that never renders in logs
package domain
