package hclmodel

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/modelgraph/internal/engine"
	"github.com/vk/modelgraph/internal/managed"
	"github.com/zclconf/go-cty/cty"
)

// writeManifest writes a single manifest file into a temp dir and returns
// its path.
func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const peopleManifest = `
model_type "person" {
  property "name" { type = string }
}

model "people" {
  type = collection(person)
  create {
    element {
      set "name" { value = "p1" }
    }
    element {
      set "name" { value = "p2" }
    }
  }
}

mutate "people" "addExtras" {
  element {
    set "name" { value = "p3" }
  }
}
`

func TestLoadCollectionManifest(t *testing.T) {
	ctx := context.Background()
	eng := engine.New()
	loader := NewLoader()

	path := writeManifest(t, "people.hcl", peopleManifest)
	require.NoError(t, loader.Load(ctx, path, eng))

	require.NoError(t, eng.RunToCompletion(ctx, "people"))
	v, err := eng.Get(ctx, "people")
	require.NoError(t, err)

	var got []string
	require.NoError(t, v.(*managed.Collection).Each(func(o *managed.Object) error {
		nv, err := o.Get("name")
		if err != nil {
			return err
		}
		got = append(got, nv.(cty.Value).AsString())
		return nil
	}))
	sort.Strings(got)
	assert.Equal(t, []string{"p1", "p2", "p3"}, got)
}

func TestLoadObjectManifest(t *testing.T) {
	ctx := context.Background()
	eng := engine.New()
	loader := NewLoader()

	path := writeManifest(t, "hq.hcl", `
model_type "address" {
  property "city" { type = string }
}

model "hq" {
  type = address
  create {
    set "city" { value = "Oslo" }
  }
}
`)
	require.NoError(t, loader.Load(ctx, path, eng))
	require.NoError(t, eng.RunToCompletion(ctx, "hq"))

	v, err := eng.Get(ctx, "hq")
	require.NoError(t, err)
	city, err := v.(*managed.Object).Get("city")
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("Oslo"), city)
}

func TestLoadDirectoryIsDeterministic(t *testing.T) {
	ctx := context.Background()
	eng := engine.New()
	loader := NewLoader()

	dir := t.TempDir()
	// Types and the model in one file, a mutation in a later-sorted file.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01_people.hcl"), []byte(`
model_type "person" {
  property "name" { type = string }
}

model "people" {
  type = collection(person)
  create {
    element {
      set "name" { value = "p1" }
    }
  }
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02_extra.hcl"), []byte(`
mutate "people" "addP2" {
  element {
    set "name" { value = "p2" }
  }
}
`), 0o644))

	require.NoError(t, loader.Load(ctx, dir, eng))
	require.NoError(t, eng.RunToCompletion(ctx, "people"))

	v, err := eng.Get(ctx, "people")
	require.NoError(t, err)
	size, err := v.(*managed.Collection).Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown managed type", func(t *testing.T) {
		path := writeManifest(t, "bad.hcl", `
model "people" {
  type = collection(person)
}
`)
		err := NewLoader().Load(ctx, path, engine.New())
		assert.ErrorContains(t, err, `unknown type "person"`)
	})

	t.Run("duplicate managed type", func(t *testing.T) {
		path := writeManifest(t, "dup.hcl", `
model_type "person" {}
model_type "person" {}
`)
		err := NewLoader().Load(ctx, path, engine.New())
		assert.ErrorContains(t, err, `managed type "person" declared twice`)
	})

	t.Run("missing manifest path", func(t *testing.T) {
		err := NewLoader().Load(ctx, filepath.Join(t.TempDir(), "nope.hcl"), engine.New())
		assert.ErrorContains(t, err, "cannot access model path")
	})

	t.Run("element blocks on an object subject fail at realization", func(t *testing.T) {
		path := writeManifest(t, "bad_subject.hcl", `
model_type "address" {
  property "city" { type = string }
}

model "hq" {
  type = address
  create {
    element {
      set "city" { value = "Oslo" }
    }
  }
}
`)
		eng := engine.New()
		require.NoError(t, NewLoader().Load(ctx, path, eng))
		err := eng.RunToCompletion(ctx, "hq")
		assert.ErrorContains(t, err, "element blocks require a collection subject")
	})
}
