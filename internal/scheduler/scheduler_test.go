package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/modelgraph/internal/graph"
	"github.com/vk/modelgraph/internal/managed"
	"github.com/vk/modelgraph/internal/modeltype"
	"github.com/vk/modelgraph/internal/rule"
	"github.com/zclconf/go-cty/cty"
)

func personDesc() *modeltype.Descriptor {
	return modeltype.NewDescriptor("Person",
		modeltype.Property{Name: "name", Type: modeltype.Scalar(cty.String)},
	)
}

// noop is a rule body that does nothing.
func noop(context.Context, *Scope) error { return nil }

func TestLazyRealization(t *testing.T) {
	ctx := context.Background()
	s := New(graph.New())

	ran := false
	creator := &Rule{ID: rule.New("people"), Fn: func(context.Context, *Scope) error {
		ran = true
		return nil
	}}
	require.NoError(t, s.DeclareCreator("people", modeltype.CollectionOf(personDesc()), creator))

	assert.False(t, ran, "creation rule must not run before the path is demanded")

	n, err := s.Realize(ctx, "people")
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, graph.Open, n.Phase())

	// Idempotent: realizing again does not re-run the creator.
	ran = false
	_, err = s.Realize(ctx, "people")
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestExecutionOrder(t *testing.T) {
	ctx := context.Background()
	s := New(graph.New())

	var order []string
	record := func(name string) *Rule {
		return &Rule{ID: rule.New(name), Fn: func(context.Context, *Scope) error {
			order = append(order, name)
			return nil
		}}
	}

	// Mutators may be registered before the creator's path is demanded,
	// in any interleaving; execution is creator first, then registration
	// order.
	s.AddMutator("people", record("m1"))
	require.NoError(t, s.DeclareCreator("people", modeltype.CollectionOf(personDesc()), record("creator")))
	s.AddMutator("people", record("m2"))
	s.AddMutator("people", record("m3"))

	_, err := s.Realize(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, []string{"creator", "m1", "m2", "m3"}, order)
}

func TestInputsCloseTheirNodes(t *testing.T) {
	ctx := context.Background()
	s := New(graph.New())

	peopleTyp := modeltype.CollectionOf(personDesc())
	require.NoError(t, s.DeclareCreator("people", peopleTyp, &Rule{
		ID: rule.New("people"),
		Fn: func(_ context.Context, sc *Scope) error {
			return sc.Subject().(*managed.Collection).Create(func(o *managed.Object) error {
				return o.Set("name", "p1")
			})
		},
	}))

	var observed int
	require.NoError(t, s.DeclareCreator("report", modeltype.ObjectOf(personDesc()), &Rule{
		ID:     rule.New("report"),
		Inputs: []string{"people"},
		Fn: func(_ context.Context, sc *Scope) error {
			in, ok := sc.Input("people")
			require.True(t, ok)
			size, err := in.(*managed.Collection).Size()
			if err != nil {
				return err
			}
			observed = size
			return nil
		},
	}))

	_, err := s.Realize(ctx, "report")
	require.NoError(t, err)
	assert.Equal(t, 1, observed)

	// Reading "people" as an input closed it permanently.
	n, err := s.Graph().Locate("people")
	require.NoError(t, err)
	assert.Equal(t, graph.Closed, n.Phase())
}

func TestMutatorAfterCloseFails(t *testing.T) {
	ctx := context.Background()
	s := New(graph.New())

	require.NoError(t, s.DeclareCreator("people", modeltype.CollectionOf(personDesc()), &Rule{ID: rule.New("people"), Fn: noop}))
	require.NoError(t, s.RunToCompletion(ctx, "people"))

	s.AddMutator("people", &Rule{ID: rule.New("late"), Fn: noop})
	_, err := s.Realize(ctx, "people")
	require.Error(t, err)
	assert.ErrorContains(t, err, "Exception thrown while executing model rule: late")
	assert.ErrorContains(t, err, "Attempt to mutate closed view of model of type 'collection<Person>' given to rule 'late'.")
}

func TestCycleFailsFast(t *testing.T) {
	ctx := context.Background()
	s := New(graph.New())
	typ := modeltype.ObjectOf(personDesc())

	require.NoError(t, s.DeclareCreator("a", typ, &Rule{ID: rule.New("a"), Inputs: []string{"b"}, Fn: noop}))
	require.NoError(t, s.DeclareCreator("b", typ, &Rule{ID: rule.New("b"), Inputs: []string{"a"}, Fn: noop}))

	_, err := s.Realize(ctx, "a")
	require.ErrorIs(t, err, ErrCycle)
	assert.ErrorContains(t, err, "a -> b -> a")
}

func TestResolutionErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("undeclared path", func(t *testing.T) {
		s := New(graph.New())
		_, err := s.Realize(ctx, "nowhere")
		assert.ErrorIs(t, err, graph.ErrNotFound)
	})

	t.Run("declared path without creation rule", func(t *testing.T) {
		s := New(graph.New())
		_, err := s.Graph().Declare("orphan", modeltype.ObjectOf(personDesc()))
		require.NoError(t, err)
		_, err = s.Realize(ctx, "orphan")
		assert.ErrorIs(t, err, ErrNoCreator)
	})

	t.Run("duplicate creation rule", func(t *testing.T) {
		s := New(graph.New())
		typ := modeltype.ObjectOf(personDesc())
		require.NoError(t, s.DeclareCreator("p", typ, &Rule{ID: rule.New("first"), Fn: noop}))
		err := s.DeclareCreator("p", typ, &Rule{ID: rule.New("second"), Fn: noop})
		assert.ErrorIs(t, err, graph.ErrDuplicatePath)
	})
}

func TestRuleFailureIsWrapped(t *testing.T) {
	ctx := context.Background()
	s := New(graph.New())

	boom := errors.New("boom")
	require.NoError(t, s.DeclareCreator("people", modeltype.CollectionOf(personDesc()), &Rule{
		ID: rule.New("people"),
		Fn: func(context.Context, *Scope) error { return boom },
	}))

	_, err := s.Realize(ctx, "people")
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "Exception thrown while executing model rule: people")

	// No rollback: the node is left in the phase it reached.
	n, err := s.Graph().Locate("people")
	require.NoError(t, err)
	assert.Equal(t, graph.Creating, n.Phase())
}

func TestRunToCompletionCloses(t *testing.T) {
	ctx := context.Background()
	s := New(graph.New())

	require.NoError(t, s.DeclareCreator("people", modeltype.CollectionOf(personDesc()), &Rule{ID: rule.New("people"), Fn: noop}))
	require.NoError(t, s.RunToCompletion(ctx, "people"))

	n, err := s.Graph().Locate("people")
	require.NoError(t, err)
	assert.Equal(t, graph.Closed, n.Phase())
}

func TestSubjectViewExpiresWithInvocation(t *testing.T) {
	ctx := context.Background()
	s := New(graph.New())

	var leaked *managed.Collection
	require.NoError(t, s.DeclareCreator("people", modeltype.CollectionOf(personDesc()), &Rule{
		ID: rule.New("people"),
		Fn: func(_ context.Context, sc *Scope) error {
			leaked = sc.Subject().(*managed.Collection)
			return nil
		},
	}))

	_, err := s.Realize(ctx, "people")
	require.NoError(t, err)
	require.NotNil(t, leaked)

	err = leaked.Create(nil)
	require.Error(t, err)
	assert.EqualError(t, err, "Attempt to mutate closed view of model of type 'collection<Person>' given to rule 'people'.")
}
