package streams

import (
	"fmt"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
)

// FaultVersion is the payload version of every fault event.
const FaultVersion = "v1"

// Definition describes a schema entry managed by the registry.
type Definition struct {
	EventType string
	Version   string
	Schema    []byte
}

var faultSchema = []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["cause"],
  "properties": {
    "cause": {"type": "string"},
    "component": {"type": "string"}
  },
  "additionalProperties": false
}`)

// FaultEvents lists every event the dispatch loop and the job search report.
var FaultEvents = []string{
	core.EventTurnAborted,
	core.EventCeilingReached,
	core.EventHandlerFailed,
	models.EventIdentifiersFailed,
	models.EventDetailFailed,
	models.EventBatchFailed,
}

// BaseDefinitions returns one definition per fault event.
func BaseDefinitions() []Definition {
	defs := make([]Definition, 0, len(FaultEvents))
	for _, ev := range FaultEvents {
		defs = append(defs, Definition{EventType: ev, Version: FaultVersion, Schema: faultSchema})
	}
	return defs
}

// RegisterBaseSchemas loads the fault schemas into reg.
func RegisterBaseSchemas(reg *SchemaRegistry) error {
	if reg == nil {
		return fmt.Errorf("registry is nil")
	}
	for _, def := range BaseDefinitions() {
		if err := reg.Register(def.EventType, def.Version, def.Schema); err != nil {
			return fmt.Errorf("register %s %s: %w", def.EventType, def.Version, err)
		}
	}
	return nil
}
