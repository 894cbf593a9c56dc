package shell

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-klish/klish/internal/command"
	"github.com/go-klish/klish/internal/param"
	"github.com/go-klish/klish/internal/ptype"
	"github.com/go-klish/klish/internal/view"
)

func TestContextVarsSessionLevel(t *testing.T) {
	e := newTestEngine(t)

	v, ok := e.lookupContextVar("_pid", nil)
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(os.Getpid()), v)

	v, ok = e.lookupContextVar("_cur_depth", nil)
	require.True(t, ok)
	assert.Equal(t, "0", v)

	_, ok = e.lookupContextVar("_cmd", nil)
	assert.False(t, ok, "scope-level vars need a scope")
}

func TestContextVarsScope(t *testing.T) {
	e := newTestEngine(t)
	scope := &execScope{
		fullCmd:  "b show version",
		cmd:      "show version",
		line:     "detail",
		fullLine: "b show version detail",
		params:   []string{"detail"},
		prefixes: []string{"b"},
	}

	v, ok := e.lookupContextVar("_full_cmd", scope)
	require.True(t, ok)
	assert.Equal(t, "b show version", v)

	v, ok = e.lookupContextVar("_prefix0", scope)
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = e.lookupContextVar("_prefix1", scope)
	assert.False(t, ok)
}

func TestViewIDSeededOnTransition(t *testing.T) {
	e := newTestEngine(t)

	e.Views.Add(view.New("interface"))
	gv, _ := e.Views.Get("global")

	pt, err := ptype.New("iface", "", "", `eth[0-9]+`, ptype.MethodRegex, ptype.PreprocessNone, 0, 0, nil)
	require.NoError(t, err)
	vec := param.NewVector()
	vec.Add(&param.Param{Name: "name", PType: pt})
	gv.AddCommand(&command.Command{
		Name:     "interface",
		Params:   vec,
		ViewName: "interface",
		ViewID:   "iface=${name}",
	})

	require.NoError(t, e.Execute(context.Background(), "interface eth0"))
	require.Equal(t, "interface", e.CurrentView())

	v, ok := e.pwd.lookupViewID("iface")
	require.True(t, ok)
	assert.Equal(t, "eth0", v)

	// The line that pushed the level is the config pwd path.
	assert.Equal(t, []string{"interface eth0"}, e.pwd.lines())
}

func TestParseViewID(t *testing.T) {
	m := parseViewID("a=1;b=two; c = 3 ;")
	assert.Equal(t, map[string]string{"a": "1", "b": "two", "c": "3"}, m)
	assert.Nil(t, parseViewID("  "))
}

type recordingClient struct {
	pwd      []string
	line     string
	priority uint16
}

func (r *recordingClient) Set(pwd []string, priority uint16, pattern, line string, seq int, unique bool) error {
	r.pwd, r.line, r.priority = pwd, line, priority
	return nil
}
func (r *recordingClient) Unset(pwd []string, pattern string, priority uint16, seq int) error {
	return nil
}
func (r *recordingClient) Dump(pwd []string, pattern string, depth int, file string) (string, error) {
	return "", nil
}

func TestConfigSetCarriesPwd(t *testing.T) {
	e := newTestEngine(t)
	rc := &recordingClient{}
	e.Client = rc

	e.Views.Add(view.New("interface"))
	gv, _ := e.Views.Get("global")

	pt, err := ptype.New("iface", "", "", `eth[0-9]+`, ptype.MethodRegex, ptype.PreprocessNone, 0, 0, nil)
	require.NoError(t, err)
	vec := param.NewVector()
	vec.Add(&param.Param{Name: "name", PType: pt})
	gv.AddCommand(&command.Command{
		Name:     "interface",
		Params:   vec,
		ViewName: "interface",
	})

	iv, _ := e.Views.Get("interface")
	iv.AddCommand(&command.Command{
		Name:   "shutdown",
		Params: param.NewVector(),
		Config: &command.ConfigDirective{
			Op:       command.ConfigSet,
			Priority: 0x0100,
			Pattern:  "shutdown",
			Unique:   true,
		},
	})

	require.NoError(t, e.Execute(context.Background(), "interface eth0"))
	require.NoError(t, e.Execute(context.Background(), "shutdown"))

	assert.Equal(t, []string{"interface eth0"}, rc.pwd)
	assert.Equal(t, "shutdown", rc.line)
	assert.Equal(t, uint16(0x0100), rc.priority)
}
