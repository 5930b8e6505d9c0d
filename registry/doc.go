// Package registry serves programs and records to the network resolver
// strategy over gRPC.
//
// The service is xdao.progload.registry.v1.Registry and uses protobuf
// well-known types only (see registry.proto). GetProgram responses carry the
// content id of the returned source in the x-content-cid header; Client
// recomputes it and fails with ErrCIDMismatch when they differ. Every request
// carries the caller's network in x-network so a server never answers for a
// network it does not serve.
package registry
