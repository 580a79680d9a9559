package graph_test

import (
	"testing"

	"github.com/aretw0/gantry/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SnapshotIsImmutable(t *testing.T) {
	b := graph.NewBuilder().Alias("demo", "first", "clean")
	g := b.Build()
	b.Alias("demo", "second", "generate")

	task, ok := g.Lookup("demo")
	require.True(t, ok)
	assert.Equal(t, "first", task.Description)
	assert.True(t, task.IsAlias())
}

func TestGraph_With(t *testing.T) {
	g := graph.NewBuilder().Alias("test", "alias", "mochaTest").Build()
	next := g.With(graph.Task{Name: "test", Description: "function"})

	old, _ := g.Lookup("test")
	replaced, _ := next.Lookup("test")
	assert.Equal(t, "alias", old.Description)
	assert.Equal(t, "function", replaced.Description)
	assert.Empty(t, replaced.Prerequisites)
	assert.Equal(t, 1, next.Len())
}

func TestGraph_TasksSorted(t *testing.T) {
	g := graph.NewBuilder().
		Alias("releaseDemo", "").
		Alias("clean", "").
		Alias("demo", "").
		Build()

	var names []string
	for _, task := range g.Tasks() {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"clean", "demo", "releaseDemo"}, names)
}
