package view

import (
	"regexp"
	"testing"

	"github.com/go-klish/klish/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongestMatchResolution(t *testing.T) {
	vs := NewSet()
	v := New("root")
	require.True(t, v.AddCommand(&command.Command{Name: "a"}))
	require.True(t, v.AddCommand(&command.Command{Name: "a b"}))
	vs.Add(v)

	m, ok := vs.Resolve("root", "a b x")
	require.True(t, ok)
	assert.Equal(t, "a b", m.Cmd.Name)
}

func TestNamespacePrefixReachability(t *testing.T) {
	vs := NewSet()

	b := New("B")
	require.True(t, b.AddCommand(&command.Command{Name: "show"}))
	vs.Add(b)

	a := New("A")
	a.Namespaces = append(a.Namespaces, &Namespace{
		TargetView: "B",
		Prefix:     regexp.MustCompile(`^b `),
		Help:       true, Completion: true, ContextHelp: true,
	})
	vs.Add(a)

	m, ok := vs.Resolve("A", "b show")
	require.True(t, ok)
	assert.Equal(t, "show", m.Cmd.AliasOf)
	assert.Equal(t, "b show", m.MatchedText)

	_, ok = vs.Resolve("A", "show")
	assert.False(t, ok)
}

func TestLocalViewWinsOverNamespaceOnTie(t *testing.T) {
	vs := NewSet()
	b := New("B")
	require.True(t, b.AddCommand(&command.Command{Name: "x"}))
	vs.Add(b)

	a := New("A")
	require.True(t, a.AddCommand(&command.Command{Name: "x"}))
	a.Namespaces = append(a.Namespaces, &Namespace{TargetView: "B", Help: true, Completion: true, ContextHelp: true})
	vs.Add(a)

	m, ok := vs.Resolve("A", "x")
	require.True(t, ok)
	assert.Equal(t, "A", m.SourceView)
}
