// Package hclmodel loads model manifests written in HCL and registers the
// declared managed types, model elements and rules with the engine. The
// manifest layer is a front end: everything it does goes through the
// engine's public surface, and rule bodies stay unevaluated HCL until the
// scheduler actually invokes the rule.
package hclmodel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/engine"
	"github.com/vk/modelgraph/internal/managed"
	"github.com/vk/modelgraph/internal/modeltype"
	"github.com/vk/modelgraph/internal/rule"
	"github.com/vk/modelgraph/internal/scheduler"
)

// Loader parses manifest files and registers their declarations.
type Loader struct {
	types *modeltype.Registry
}

// NewLoader creates a Loader with an empty managed type registry.
func NewLoader() *Loader {
	return &Loader{types: modeltype.NewRegistry()}
}

// Types returns the registry of managed types declared so far.
func (l *Loader) Types() *modeltype.Registry { return l.types }

// Load parses the manifest file or directory at path and registers all
// declarations with the engine. Directories are processed in sorted file
// name order so registration order, and therefore mutator order, is
// deterministic.
func (l *Loader) Load(ctx context.Context, path string, eng *engine.Engine) error {
	logger := ctxlog.FromContext(ctx)

	files, err := collectFiles(path)
	if err != nil {
		return err
	}
	logger.Debug("Loading model manifests.", "path", path, "files", len(files))

	parser := hclparse.NewParser()
	manifests := make([]*manifest, 0, len(files))
	for _, f := range files {
		hclFile, diags := parser.ParseHCLFile(f)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse manifest %s: %w", f, diags)
		}
		var m manifest
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &m); diags.HasErrors() {
			return fmt.Errorf("failed to decode manifest %s: %w", f, diags)
		}
		manifests = append(manifests, &m)
	}

	// Managed types first, so model declarations can reference them. A
	// property may only reference types declared before it.
	for _, m := range manifests {
		for _, td := range m.Types {
			if err := l.registerType(td); err != nil {
				return err
			}
		}
	}

	for _, m := range manifests {
		for _, md := range m.Models {
			typ, err := l.typeExpr(md.Type)
			if err != nil {
				return fmt.Errorf("model '%s': %w", md.Path, err)
			}
			var sets []*setDecl
			var elements []*elementDecl
			if md.Create != nil {
				sets, elements = md.Create.Sets, md.Create.Elements
			}
			creator := &scheduler.Rule{
				ID: rule.New(md.Path),
				Fn: l.bodyFunc(sets, elements),
			}
			if err := eng.DeclareModel(md.Path, typ, creator); err != nil {
				return err
			}
			logger.Debug("Declared model element.", "path", md.Path, "type", typ.String())
		}
	}

	for _, m := range manifests {
		for _, md := range m.Mutations {
			eng.RegisterMutator(md.Path, &scheduler.Rule{
				ID: rule.New(md.Name),
				Fn: l.bodyFunc(md.Sets, md.Elements),
			})
			logger.Debug("Registered mutation rule.", "path", md.Path, "rule", md.Name)
		}
	}

	return nil
}

// registerType builds and registers the descriptor for one model_type
// block.
func (l *Loader) registerType(td *typeDecl) error {
	if _, exists := l.types.Lookup(td.Name); exists {
		return fmt.Errorf("managed type %q declared twice", td.Name)
	}
	props := make([]modeltype.Property, 0, len(td.Properties))
	for _, pd := range td.Properties {
		pt, err := l.typeExpr(pd.Type)
		if err != nil {
			return fmt.Errorf("model_type %q, property %q: %w", td.Name, pd.Name, err)
		}
		props = append(props, modeltype.Property{Name: pd.Name, Type: pt})
	}
	l.types.Register(modeltype.NewDescriptor(td.Name, props...))
	return nil
}

// bodyFunc compiles set/element blocks into a rule body. Value expressions
// are evaluated when the rule runs, not when the manifest is loaded.
func (l *Loader) bodyFunc(sets []*setDecl, elements []*elementDecl) scheduler.Func {
	return func(ctx context.Context, s *scheduler.Scope) error {
		switch subject := s.Subject().(type) {
		case *managed.Object:
			if len(elements) > 0 {
				return fmt.Errorf("element blocks require a collection subject")
			}
			return applySets(subject, sets)
		case *managed.Collection:
			if len(sets) > 0 {
				return fmt.Errorf("set blocks require an object subject")
			}
			for _, el := range elements {
				el := el
				if err := subject.Create(func(o *managed.Object) error {
					return applySets(o, el.Sets)
				}); err != nil {
					return err
				}
			}
			return nil
		default:
			return fmt.Errorf("unsupported subject type %T", subject)
		}
	}
}

func applySets(o *managed.Object, sets []*setDecl) error {
	for _, sd := range sets {
		val, diags := sd.Value.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("failed to evaluate value for property '%s': %w", sd.Property, diags)
		}
		if err := o.Set(sd.Property, val); err != nil {
			return err
		}
	}
	return nil
}

// collectFiles resolves a manifest path to the sorted list of .hcl files
// it names.
func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access model path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read model directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".hcl") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl manifest files found in %s", path)
	}
	return files, nil
}
