package definition

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes every top-level block a definition file may contain.
type fileRoot struct {
	Motifs     []*motifBlock `hcl:"motif,block"`
	Conditions []*eventBlock `hcl:"custom_condition,block"`
	Results    []*eventBlock `hcl:"custom_result,block"`
	Maps       []*mapBlock   `hcl:"map,block"`
}

type motifBlock struct {
	Name string         `hcl:"name,label"`
	Vars hcl.Expression `hcl:"vars,optional"`
}

type eventBlock struct {
	Name        string              `hcl:"name,label"`
	Attrs       []string            `hcl:"attrs,optional"`
	Allowed     map[string][]string `hcl:"allowed,optional"`
	Requirement string              `hcl:"requirement,optional"`
	Script      string              `hcl:"script,optional"`
}

type mapBlock struct {
	Name   string         `hcl:"name,label"`
	Width  hcl.Expression `hcl:"width"`
	Height hcl.Expression `hcl:"height"`
	Fill   string         `hcl:"fill,optional"`
	Motifs []string       `hcl:"motifs,optional"`
	Steps  []*stepBlock   `hcl:"step,block"`
}

// stepBlock keeps the body raw: the attributes a step accepts depend on
// its kind and on the registered custom events.
type stepBlock struct {
	Kind string   `hcl:"kind,label"`
	Body hcl.Body `hcl:",remain"`
}
