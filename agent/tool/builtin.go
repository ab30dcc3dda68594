package tool

import (
	"github.com/rs/zerolog"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/artifact"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/datastore"
)

type Deps struct {
	Store     datastore.Catalog
	Artifacts *artifact.Store
}

// Builtin returns every tool the default roster refers to.
func Builtin(deps Deps) []Definition {
	defs := []Definition{
		listTablesTool(deps.Store),
		getSchemaTool(deps.Store),
		runQueryTool(deps.Store),
	}
	defs = append(defs, acquisitionTools(deps.Artifacts)...)
	defs = append(defs,
		readTextTool(deps.Artifacts),
		searchMarketTool(),
		generateChartTool(),
		formatReportTool(),
		mathTool(),
	)
	return defs
}

func NewDefaultCatalog(logger zerolog.Logger, deps Deps) (*Catalog, error) {
	return NewCatalog(logger, Builtin(deps)...)
}
