// Package ports defines the interfaces that connect the shipping core to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [Transport]: dispatches a batch of formatted messages to the listener
//   - [StatusReporter]: receives informational narration from a transport
//   - [DispatchObserver]: records the outcome of every dispatch
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them.
package ports
