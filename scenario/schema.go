package scenario

// Document models a designer-authored box layout file. The struct doubles as
// the source of truth for the JSON schema emitted by scenario/cmd/schema, so
// validation rules live in the jsonschema tags.
type Document struct {
	Name        string        `json:"name" jsonschema:"title=Scenario name,pattern=^[a-z0-9\\-]+$,minLength=1,required,description=Identifier for the layout; surfaced in logs and diagnostics."`
	Description string        `json:"description,omitempty" jsonschema:"description=Free-form note for the author."`
	Boxes       []BoxDocument `json:"boxes" jsonschema:"title=Boxes,required,description=Axis-aligned boxes registered before the random population is scattered."`
}

// BoxDocument is the wire form of one authored box.
type BoxDocument struct {
	ID         string  `json:"id" jsonschema:"title=Box ID,pattern=^[a-z0-9\\-]+$,minLength=1,required,description=Unique handle for the box within the scenario."`
	X          float64 `json:"x" jsonschema:"title=Left edge,required"`
	Y          float64 `json:"y" jsonschema:"title=Top edge,required"`
	Width      float64 `json:"width" jsonschema:"title=Width,minimum=0,required"`
	Height     float64 `json:"height" jsonschema:"title=Height,minimum=0,required"`
	Stationary bool    `json:"stationary,omitempty" jsonschema:"title=Stationary,description=Marks the box as never moving so its collisions can be cached."`
}
