package scheme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-klish/klish/internal/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScheme(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// TestScenarioAScheme loads a scheme with one
// command "show version" and no parameters.
func TestScenarioAScheme(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "show.xml", `<?xml version="1.0"?>
<CLISH_MODULE>
  <VIEW name="global">
    <COMMAND name="show version" help="show the version">
      <ACTION builtin="overview"/>
    </COMMAND>
  </VIEW>
</CLISH_MODULE>`)

	res, err := New().LoadDirs([]string{dir})
	require.NoError(t, err)

	v, ok := res.Views.Get("global")
	require.True(t, ok)
	c, ok := v.Command("show version")
	require.True(t, ok)
	assert.Equal(t, "overview", c.Action.Symbol)
	assert.Equal(t, 0, c.Params.Len())
}

// TestScenarioBScheme loads a "set port <uint>" scheme.
func TestScenarioBScheme(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "set.xml", `<?xml version="1.0"?>
<CLISH_MODULE>
  <PTYPE name="uint_1_65535" method="unsignedInteger" pattern="1..65535"/>
  <VIEW name="global">
    <COMMAND name="set port">
      <PARAM name="port" ptype="uint_1_65535"/>
      <ACTION builtin="default_script"/>
    </COMMAND>
  </VIEW>
</CLISH_MODULE>`)

	res, err := New().LoadDirs([]string{dir})
	require.NoError(t, err)

	v, _ := res.Views.Get("global")
	c, ok := v.Command("set port")
	require.True(t, ok)
	p := c.Params.ByName("port")
	require.NotNil(t, p)
	_, valid := p.PType.Validate("70000")
	assert.False(t, valid)
	_, valid = p.PType.Validate("22")
	assert.True(t, valid)
}

func TestSelectPType(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "color.xml", `<?xml version="1.0"?>
<CLISH_MODULE>
  <PTYPE name="color" method="select" pattern="red(r) green(g) blue(b)"/>
</CLISH_MODULE>`)

	res, err := New().LoadDirs([]string{dir})
	require.NoError(t, err)

	pt := res.PTypes["color"]
	require.NotNil(t, pt)
	display, ok := pt.Validate("RED")
	require.True(t, ok)
	assert.Equal(t, "red", display)
	val, ok := pt.Translate("green")
	require.True(t, ok)
	assert.Equal(t, "g", val)
}

func TestDuplicateOverviewRejected(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "a.xml", `<CLISH_MODULE><OVERVIEW>first</OVERVIEW></CLISH_MODULE>`)
	writeScheme(t, dir, "b.xml", `<CLISH_MODULE><OVERVIEW>second</OVERVIEW></CLISH_MODULE>`)

	_, err := New().LoadDirs([]string{dir})
	assert.Error(t, err)
}

func TestDuplicateCommandRejected(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "a.xml", `<CLISH_MODULE>
  <VIEW name="global">
    <COMMAND name="x"><ACTION/></COMMAND>
    <COMMAND name="x"><ACTION/></COMMAND>
  </VIEW>
</CLISH_MODULE>`)

	_, err := New().LoadDirs([]string{dir})
	assert.Error(t, err)
}

func TestNamespaceImport(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "ns.xml", `<CLISH_MODULE>
  <VIEW name="configure">
    <COMMAND name="interface"><ACTION/></COMMAND>
  </VIEW>
  <VIEW name="global">
    <NAMESPACE ref="configure" prefix="conf " help="true" completion="true" context_help="true"/>
  </VIEW>
</CLISH_MODULE>`)

	res, err := New().LoadDirs([]string{dir})
	require.NoError(t, err)

	m, ok := res.Views.Resolve("global", "conf interface")
	require.True(t, ok)
	assert.Equal(t, "conf interface", m.MatchedText)
}

func TestCommandLinkResolvesTargetBody(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "link.xml", `<CLISH_MODULE>
  <VIEW name="global">
    <COMMAND name="exit" help="leave the shell">
      <PARAM name="code" optional="true"/>
      <ACTION builtin="nav_exit"/>
    </COMMAND>
    <COMMAND name="quit" help="alias of exit" ref="exit"/>
  </VIEW>
</CLISH_MODULE>`)

	res, err := New().LoadDirs([]string{dir})
	require.NoError(t, err)

	v, _ := res.Views.Get("global")
	link, ok := v.Command("quit")
	require.True(t, ok)
	assert.Equal(t, "nav_exit", link.Action.Symbol)
	assert.Equal(t, "quit", link.Name)
	assert.Equal(t, "alias of exit", link.Help)
	assert.True(t, link.IsLink())
}

func TestSubcommandPrefixExpansion(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "prefix.xml", `<CLISH_MODULE>
  <VIEW name="global">
    <COMMAND name="show">
      <PARAM name="brief" prefix="brief" optional="true"/>
      <ACTION/>
    </COMMAND>
  </VIEW>
</CLISH_MODULE>`)

	res, err := New().LoadDirs([]string{dir})
	require.NoError(t, err)

	v, _ := res.Views.Get("global")
	c, _ := v.Command("show")
	p := c.Params.ByName("brief")
	require.NotNil(t, p)
	assert.Equal(t, param.ModeSubcommand, p.Mode)
	assert.Equal(t, "brief", p.Literal())
	require.Equal(t, 1, p.Params.Len())
}

func TestUnknownConfigOperationRejected(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "bad.xml", `<CLISH_MODULE>
  <VIEW name="global">
    <COMMAND name="x">
      <ACTION/>
      <CONFIG operation="bogus"/>
    </COMMAND>
  </VIEW>
</CLISH_MODULE>`)

	_, err := New().LoadDirs([]string{dir})
	assert.Error(t, err)
}
