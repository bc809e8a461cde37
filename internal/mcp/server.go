package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"lorebook/internal/config"
	"lorebook/internal/engine"
	"lorebook/internal/entry"
	"lorebook/internal/store"
)

// Querier is the slice of the storage API the MCP tools need.
type Querier interface {
	ScenarioEntries(ctx context.Context, scenarioID string) ([]entry.Entry, error)
	GetEntry(ctx context.Context, id string) (*entry.Entry, error)
	ListEntries(ctx context.Context, scenarioID, entryType, category string) ([]entry.Summary, error)
	AllEntries(ctx context.Context) ([]entry.Entry, error)
	RecordTrigger(ctx context.Context, entryID string) error
	Search(ctx context.Context, query, scenarioID, entryType string) ([]store.SearchResult, error)
}

type Server struct {
	cfg    *config.ProjectConfig
	schema *config.Schema
	engine *engine.Engine
	db     Querier
	mcp    *sdk.Server
}

func NewServer(cfg *config.ProjectConfig, schema *config.Schema, db Querier, version string) *Server {
	s := &Server{
		cfg:    cfg,
		schema: schema,
		engine: engine.New(engine.Options{
			SemanticThreshold: cfg.Engine.SemanticThreshold,
			ConditionAliases:  schema.Aliases(),
		}),
		db: db,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "lorebook",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
