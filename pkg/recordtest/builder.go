package recordtest

import "github.com/recordd/recordd/pkg/config"

// ResourceBuilder declares one collection. Nothing is registered until Add.
type ResourceBuilder struct {
	server *Server
	rc     config.ResourceConfig
}

// Resource starts declaring a collection of kind ("note" or "person")
// served at path.
func (s *Server) Resource(kind, path string) *ResourceBuilder {
	return &ResourceBuilder{server: s, rc: config.ResourceConfig{Kind: kind, Path: path}}
}

// IDs selects the id strategy, "max" or "random".
func (b *ResourceBuilder) IDs(strategy string) *ResourceBuilder {
	b.rc.IDStrategy = strategy
	return b
}

// RandomSpace bounds the first random id range.
func (b *ResourceBuilder) RandomSpace(n int) *ResourceBuilder {
	b.rc.RandomSpace = n
	return b
}

// CreateStatus sets the status of a successful create.
func (b *ResourceBuilder) CreateStatus(code int) *ResourceBuilder {
	b.rc.CreateStatus = code
	return b
}

// RequireNumber makes number a required person field.
func (b *ResourceBuilder) RequireNumber() *ResourceBuilder {
	b.rc.RequireNumber = true
	return b
}

// Seed adds records loaded at start-up. Records without "id" get one from
// the id strategy.
func (b *ResourceBuilder) Seed(records ...map[string]any) *ResourceBuilder {
	b.rc.Seed = append(b.rc.Seed, records...)
	return b
}

// Add registers the collection and returns the server.
func (b *ResourceBuilder) Add() *Server {
	b.server.cfg.Resources = append(b.server.cfg.Resources, b.rc)
	return b.server
}
