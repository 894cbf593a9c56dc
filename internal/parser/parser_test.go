package parser

import (
	"testing"

	"github.com/go-klish/klish/internal/command"
	"github.com/go-klish/klish/internal/param"
	"github.com/go-klish/klish/internal/ptype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopEvaluator struct{}

func (noopEvaluator) Test(p *param.Param) bool                          { return true }
func (noopEvaluator) Completions(p *param.Param, word string) []string { return nil }

func TestScenarioA_NoParams(t *testing.T) {
	cmd := &command.Command{Name: "show version", Params: param.NewVector()}
	res := Match(cmd, nil, 0, -1, noopEvaluator{})
	assert.Equal(t, StatusOK, res.Status)
}

func TestScenarioB_BadParam(t *testing.T) {
	pt, err := ptype.New("uint_1_65535", "", "", "", ptype.MethodUnsignedInteger, ptype.PreprocessNone, 1, 65535, nil)
	require.NoError(t, err)

	vec := param.NewVector()
	vec.Add(&param.Param{Name: "port", PType: pt})
	cmd := &command.Command{Name: "set port", Params: vec}

	res := Match(cmd, []string{"70000"}, 0, -1, noopEvaluator{})
	assert.Equal(t, StatusBadParam, res.Status)
}

func TestOptionalParamMayBeOmitted(t *testing.T) {
	pt, _ := ptype.New("word", "", "", "[a-z]+", ptype.MethodRegex, ptype.PreprocessNone, 0, 0, nil)
	vec := param.NewVector()
	vec.Add(&param.Param{Name: "req", PType: pt})
	vec.Add(&param.Param{Name: "opt", PType: pt, Optional: true})
	cmd := &command.Command{Name: "x", Params: vec}

	res := Match(cmd, []string{"foo"}, 0, -1, noopEvaluator{})
	assert.Equal(t, StatusOK, res.Status)
	v, ok := res.PARGV.ByName("req")
	assert.True(t, ok)
	assert.Equal(t, "foo", v)
}

func TestPartialWhenRequiredMissing(t *testing.T) {
	pt, _ := ptype.New("word", "", "", "[a-z]+", ptype.MethodRegex, ptype.PreprocessNone, 0, 0, nil)
	vec := param.NewVector()
	vec.Add(&param.Param{Name: "req", PType: pt})
	cmd := &command.Command{Name: "x", Params: vec}

	res := Match(cmd, nil, 0, -1, noopEvaluator{})
	assert.Equal(t, StatusPartial, res.Status)
}

func TestTrailingArgsParam(t *testing.T) {
	vec := param.NewVector()
	cmd := &command.Command{Name: "exec", Params: vec, ArgsParam: &param.Param{Name: "rest"}}

	res := Match(cmd, []string{"a", "b", "c"}, 0, -1, noopEvaluator{})
	assert.Equal(t, StatusOK, res.Status)
	v, _ := res.PARGV.ByName("rest")
	assert.Equal(t, "a b c", v)
}

func TestBadCmdWhenExtraTokensWithoutArgsParam(t *testing.T) {
	cmd := &command.Command{Name: "x", Params: param.NewVector()}
	res := Match(cmd, []string{"a"}, 0, -1, noopEvaluator{})
	assert.Equal(t, StatusBadCmd, res.Status)
}

func TestSwitchModeRecordsBoth(t *testing.T) {
	pt, _ := ptype.New("word", "", "", "[a-z]+", ptype.MethodRegex, ptype.PreprocessNone, 0, 0, nil)
	child := &param.Param{Name: "name", Mode: param.ModeCommon, PType: pt}
	sw := &param.Param{Name: "choice", Mode: param.ModeSwitch, Params: &param.Vector{Params: []*param.Param{child}}}
	vec := &param.Vector{Params: []*param.Param{sw}}
	cmd := &command.Command{Name: "x", Params: vec}

	res := Match(cmd, []string{"foo"}, 0, -1, noopEvaluator{})
	require.Equal(t, StatusOK, res.Status)
	v, ok := res.PARGV.ByName("choice")
	assert.True(t, ok)
	assert.Equal(t, "name", v)
	v, ok = res.PARGV.ByName("name")
	assert.True(t, ok)
	assert.Equal(t, "foo", v)
}

func TestCompletionAtInsertionIndex(t *testing.T) {
	sel, _ := ptype.New("color", "", "", "", ptype.MethodSelect, ptype.PreprocessNone, 0, 0, []ptype.SelectEntry{
		{Display: "red", Value: "r"}, {Display: "green", Value: "g"},
	})
	vec := param.NewVector()
	vec.Add(&param.Param{Name: "color", PType: sel})
	cmd := &command.Command{Name: "x", Params: vec}

	res := Match(cmd, []string{"r"}, 0, 0, noopEvaluator{})
	require.Len(t, res.Completions, 1)
	assert.Equal(t, "color", res.Completions[0].Name)
	assert.Contains(t, res.WordHints, "red")
}
