package symbol

import (
	"context"
	"os/exec"
)

// NewLuaPlugin builds the Lua plugin: Action text is executed by shelling
// out to the system "lua" interpreter through the same external-process
// idiom the plugin loader uses for executable plugins.
func NewLuaPlugin() *Plugin {
	p := &Plugin{Name: "lua"}
	p.Init = func() ([]*Symbol, error) {
		return []*Symbol{
			{
				Name:      "lua",
				Type:      TypeAction,
				API:       APISimple,
				Permanent: false,
				Fn: func(ctx context.Context, ec *ExecContext, script string, out *string) error {
					if _, err := exec.LookPath("lua"); err != nil {
						return err
					}
					cmd := exec.CommandContext(ctx, "lua", "-e", script)
					o, err := cmd.CombinedOutput()
					*out = string(o)
					return err
				},
			},
		}, nil
	}
	return p
}
