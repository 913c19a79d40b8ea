// Package server hosts the Fiber HTTP service and its request middleware
// chain. It focuses on a single binary that bootstraps Fiber, attaches panic
// recovery and request-ID middleware, and exposes router constructors that
// other packages (main, routes) can reuse. Route handlers themselves live in
// the routes subpackage so this package stays transport-only; keep exports
// narrow and accept explicit dependencies.
package server
