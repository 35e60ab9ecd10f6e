package health

import "context"

// IndexPinger checks search index availability.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// StorePinger checks relational store availability.
type StorePinger interface {
	PingContext(ctx context.Context) error
}

// ModelChecker reports whether learned reranking is available.
type ModelChecker interface {
	Ready() bool
}
