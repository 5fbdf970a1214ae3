package interfaces

import (
	"context"

	"github.com/KevinKickass/OpenSequenceCore/internal/config"
	"github.com/KevinKickass/OpenSequenceCore/internal/definition"
	"github.com/KevinKickass/OpenSequenceCore/internal/editor"
	"github.com/KevinKickass/OpenSequenceCore/internal/export"
	"github.com/KevinKickass/OpenSequenceCore/internal/i18n"
	"github.com/KevinKickass/OpenSequenceCore/internal/storage"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State       string `json:"state"`
	Document    string `json:"document,omitempty"`
	IOElements  int    `json:"io_elements"`
	Subprograms int    `json:"subprograms"`
	Rules       int    `json:"rules"`
	LastAddress int    `json:"last_address"`
	Error       string `json:"error,omitempty"`
}

type LifecycleManager interface {
	Config() *config.Config
	Workspace() *editor.Workspace
	Exporter() *export.Exporter
	Catalog() *i18n.Catalog
	Loader() *definition.Loader
	// Store is nil when storage.driver is "none".
	Store() storage.DocumentStore
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
