package managed

import (
	"fmt"

	"github.com/vk/modelgraph/internal/modeltype"
	"github.com/vk/modelgraph/internal/view"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Object is a synthesized managed instance. Only the accessor pairs
// declared by its descriptor exist; every call checks the bound view's
// capability first. Wrappers for nested values are cached so repeated gets
// of the same property return the identical instance.
type Object struct {
	desc     *modeltype.Descriptor
	state    *objectState
	view     *view.View
	wrappers map[string]any
}

func newObject(desc *modeltype.Descriptor, state *objectState, v *view.View) *Object {
	return &Object{
		desc:     desc,
		state:    state,
		view:     v,
		wrappers: make(map[string]any),
	}
}

// Descriptor returns the managed type this instance was synthesized from.
func (o *Object) Descriptor() *modeltype.Descriptor { return o.desc }

// Get returns the value of a declared property: a cty.Value for scalars,
// an *Object for nested managed types, a *Collection for collections.
// Reading a scalar requires read capability; navigating to a nested
// managed value is legal under either capability and returns a wrapper
// bound to the same view, so a creation rule can populate nested state
// without ever observing a readable value.
func (o *Object) Get(name string) (any, error) {
	prop, ok := o.desc.Property(name)
	if !ok {
		return nil, fmt.Errorf("%w: model of type '%s' has no property '%s'", ErrNoSuchProperty, o.desc.Name(), name)
	}
	if prop.Type.Kind() == modeltype.ScalarKind {
		if err := o.view.CheckRead(); err != nil {
			return nil, err
		}
	} else if err := o.view.CheckAlive(); err != nil {
		return nil, err
	}
	return o.access(prop), nil
}

// Set assigns a declared property. Requires write capability on the bound
// view. Scalar values are converted to the declared cty type; managed
// values are assigned by reference after a read check on their own view.
// Anything not fully managed is rejected with ErrTypeMismatch.
func (o *Object) Set(name string, value any) error {
	prop, ok := o.desc.Property(name)
	if !ok {
		return fmt.Errorf("%w: model of type '%s' has no property '%s'", ErrNoSuchProperty, o.desc.Name(), name)
	}
	if err := o.view.CheckWrite(); err != nil {
		return err
	}

	switch prop.Type.Kind() {
	case modeltype.ScalarKind:
		val, err := toCty(value, prop.Type.CtyType())
		if err != nil {
			return fmt.Errorf("%w: cannot set property '%s' of model of type '%s': %v",
				ErrTypeMismatch, name, o.desc.Name(), err)
		}
		o.state.props[name] = val
		return nil

	case modeltype.ObjectKind:
		src, ok := value.(*Object)
		if !ok {
			return fmt.Errorf("%w: cannot set property '%s' of model of type '%s': value of type %T is not a managed instance",
				ErrTypeMismatch, name, o.desc.Name(), value)
		}
		if src.desc != prop.Type.Descriptor() {
			return fmt.Errorf("%w: cannot set property '%s' of model of type '%s': expected '%s', got '%s'",
				ErrTypeMismatch, name, o.desc.Name(), prop.Type.Descriptor().Name(), src.desc.Name())
		}
		// Cross-reference assignment is a read of the source.
		if err := src.view.CheckRead(); err != nil {
			return err
		}
		o.state.props[name] = src.state
		delete(o.wrappers, name)
		return nil

	case modeltype.CollectionKind:
		src, ok := value.(*Collection)
		if !ok {
			return fmt.Errorf("%w: cannot set property '%s' of model of type '%s': value of type %T is not a managed collection",
				ErrTypeMismatch, name, o.desc.Name(), value)
		}
		if src.elem != prop.Type.Descriptor() {
			return fmt.Errorf("%w: cannot set property '%s' of model of type '%s': expected collection<%s>, got collection<%s>",
				ErrTypeMismatch, name, o.desc.Name(), prop.Type.Descriptor().Name(), src.elem.Name())
		}
		if err := src.view.CheckRead(); err != nil {
			return err
		}
		o.state.props[name] = src.state
		delete(o.wrappers, name)
		return nil

	default:
		return fmt.Errorf("%w: property '%s' of model of type '%s' has unsupported kind",
			ErrTypeMismatch, name, o.desc.Name())
	}
}

// access returns the property value, allocating nested backing state on
// first touch. Allocation is not an observable mutation, so it is legal
// under either capability once the view check has passed.
func (o *Object) access(prop modeltype.Property) any {
	switch prop.Type.Kind() {
	case modeltype.ScalarKind:
		v, ok := o.state.props[prop.Name]
		if !ok {
			return cty.NullVal(prop.Type.CtyType())
		}
		return v

	case modeltype.ObjectKind:
		if w, ok := o.wrappers[prop.Name]; ok {
			return w
		}
		st, ok := o.state.props[prop.Name].(*objectState)
		if !ok {
			st = newObjectState()
			o.state.props[prop.Name] = st
		}
		w := newObject(prop.Type.Descriptor(), st, o.view)
		o.wrappers[prop.Name] = w
		return w

	default: // CollectionKind
		if w, ok := o.wrappers[prop.Name]; ok {
			return w
		}
		st, ok := o.state.props[prop.Name].(*collectionState)
		if !ok {
			st = &collectionState{}
			o.state.props[prop.Name] = st
		}
		w := newCollection(prop.Type.Descriptor(), st, o.view)
		o.wrappers[prop.Name] = w
		return w
	}
}

// toCty converts an assigned scalar to the declared cty type. Accepts a
// cty.Value directly or a plain Go value via gocty.
func toCty(value any, want cty.Type) (cty.Value, error) {
	if v, ok := value.(cty.Value); ok {
		converted, err := convert.Convert(v, want)
		if err != nil {
			return cty.NilVal, fmt.Errorf("value of type '%s' is not assignable to '%s'", v.Type().FriendlyName(), want.FriendlyName())
		}
		return converted, nil
	}
	v, err := gocty.ToCtyValue(value, want)
	if err != nil {
		return cty.NilVal, fmt.Errorf("value of type %T is not assignable to '%s'", value, want.FriendlyName())
	}
	return v, nil
}
