package hclmodel

import "github.com/hashicorp/hcl/v2"

// propertyDecl is one `property "<name>" { type = ... }` block inside a
// model_type declaration.
type propertyDecl struct {
	Name string         `hcl:"name,label"`
	Type hcl.Expression `hcl:"type"`
}

// typeDecl is a `model_type "<name>" { ... }` block declaring one managed
// type.
type typeDecl struct {
	Name       string          `hcl:"name,label"`
	Properties []*propertyDecl `hcl:"property,block"`
}

// setDecl is a `set "<property>" { value = ... }` block. The value
// expression is kept unevaluated until the owning rule runs.
type setDecl struct {
	Property string         `hcl:"property,label"`
	Value    hcl.Expression `hcl:"value"`
}

// elementDecl is an `element { ... }` block creating one collection
// element and initializing its properties.
type elementDecl struct {
	Sets []*setDecl `hcl:"set,block"`
}

// createDecl is the `create { ... }` block of a model declaration; it
// becomes the path's creation rule.
type createDecl struct {
	Sets     []*setDecl     `hcl:"set,block"`
	Elements []*elementDecl `hcl:"element,block"`
}

// modelDecl is a `model "<path>" { type = ...; create { ... } }` block.
type modelDecl struct {
	Path   string         `hcl:"path,label"`
	Type   hcl.Expression `hcl:"type"`
	Create *createDecl    `hcl:"create,block"`
}

// mutateDecl is a `mutate "<path>" "<rule name>" { ... }` block; it becomes
// a mutation rule for the path, run in declaration order after the creator.
type mutateDecl struct {
	Path     string         `hcl:"path,label"`
	Name     string         `hcl:"name,label"`
	Sets     []*setDecl     `hcl:"set,block"`
	Elements []*elementDecl `hcl:"element,block"`
}

// manifest is the top-level structure of one model manifest file.
type manifest struct {
	Types     []*typeDecl   `hcl:"model_type,block"`
	Models    []*modelDecl  `hcl:"model,block"`
	Mutations []*mutateDecl `hcl:"mutate,block"`
}
