// Package scheme implements the scheme loader: it walks a
// directory of XML scheme files and populates views, ptypes, commands,
// parameters, namespaces, variables, and hotkeys from
// them.
//
// encoding/xml's struct mapping serves as the backend-neutral DOM the
// rest of the loader consumes; the walker never touches parser
// internals, so swapping the decoder stays a local change.
package scheme

import "encoding/xml"

type xmlModule struct {
	XMLName  xml.Name      `xml:"CLISH_MODULE"`
	Views    []xmlView     `xml:"VIEW"`
	PTypes   []xmlPTYPE    `xml:"PTYPE"`
	Startup  *xmlLifecycle `xml:"STARTUP"`
	Watchdog *xmlLifecycle `xml:"WATCHDOG"`
	Overview *xmlOverview  `xml:"OVERVIEW"`
	Vars     []xmlVar      `xml:"VAR"`
	Plugins  []xmlPlugin   `xml:"PLUGIN"`
	Hotkeys  []xmlHotkey   `xml:"HOTKEY"`
}

type xmlOverview struct {
	Text string `xml:",chardata"`
}

// xmlLifecycle covers STARTUP and WATCHDOG: both are command-shaped but
// nameless and helpless.
type xmlLifecycle struct {
	Timeout  string     `xml:"timeout,attr"`
	ViewName string     `xml:"viewname,attr"`
	ViewID   string     `xml:"viewid,attr"`
	Action   *xmlAction `xml:"ACTION"`
}

type xmlView struct {
	Name       string         `xml:"name,attr"`
	Prompt     string         `xml:"prompt,attr"`
	Access     string         `xml:"access,attr"`
	Depth      string         `xml:"depth,attr"`
	Restore    string         `xml:"restore,attr"`
	Commands   []xmlCommand   `xml:"COMMAND"`
	Namespaces []xmlNamespace `xml:"NAMESPACE"`
	Hotkeys    []xmlHotkey    `xml:"HOTKEY"`
}

type xmlNamespace struct {
	Ref         string `xml:"ref,attr"`
	Prefix      string `xml:"prefix,attr"`
	Help        string `xml:"help,attr"`
	Completion  string `xml:"completion,attr"`
	ContextHelp string `xml:"context_help,attr"`
	Inherit     string `xml:"inherit,attr"`
}

type xmlHotkey struct {
	Key string `xml:"key,attr"`
	Cmd string `xml:"cmd,attr"`
}

type xmlCommand struct {
	Name       string      `xml:"name,attr"`
	Help       string      `xml:"help,attr"`
	Detail     string      `xml:"DETAIL"`
	ViewName   string      `xml:"viewname,attr"`
	ViewID     string      `xml:"viewid,attr"`
	EscapeChar string      `xml:"escape_chars,attr"`
	RegexChar  string      `xml:"regex_chars,attr"`
	Lock       string      `xml:"lock,attr"`
	Interrupt  string      `xml:"interrupt,attr"`
	Access     string      `xml:"access,attr"`
	Ref        string      `xml:"ref,attr"` // command-link target command name
	Params     []xmlParam  `xml:"PARAM"`
	Action     *xmlAction  `xml:"ACTION"`
	Config     *xmlConfig  `xml:"CONFIG"`
}

type xmlParam struct {
	Name       string     `xml:"name,attr"`
	Help       string     `xml:"help,attr"`
	PType      string     `xml:"ptype,attr"`
	Default    string     `xml:"default,attr"`
	Mode       string     `xml:"mode,attr"`
	Optional   string     `xml:"optional,attr"`
	Order      string     `xml:"order,attr"`
	Hidden     string     `xml:"hidden,attr"`
	Value      string     `xml:"value,attr"`
	Test       string     `xml:"test,attr"`
	Completion string     `xml:"completion,attr"`
	Access     string     `xml:"access,attr"`
	Prefix     string     `xml:"prefix,attr"`
	Params     []xmlParam `xml:"PARAM"`
}

type xmlAction struct {
	Builtin string `xml:"builtin,attr"`
	Shebang string `xml:"shebang,attr"`
	Script  string `xml:",chardata"`
}

type xmlConfig struct {
	Operation string `xml:"operation,attr"`
	Priority  string `xml:"priority,attr"`
	Pattern   string `xml:"pattern,attr"`
	File      string `xml:"file,attr"`
	Splitter  string `xml:"splitter,attr"`
	Sequence  string `xml:"sequence,attr"`
	Unique    string `xml:"unique,attr"`
	Depth     string `xml:"depth,attr"`
}

type xmlPTYPE struct {
	Name       string `xml:"name,attr"`
	Help       string `xml:"help,attr"`
	Text       string `xml:"text,attr"`
	Pattern    string `xml:"pattern,attr"`
	Method     string `xml:"method,attr"`
	Preprocess string `xml:"preprocess,attr"`
}

type xmlVar struct {
	Name    string `xml:"name,attr"`
	Value   string `xml:"value,attr"`
	Action  string `xml:"action,attr"`
	Dynamic string `xml:"dynamic,attr"`
}

type xmlPlugin struct {
	Name string `xml:"name,attr"`
	File string `xml:"file,attr"`
}
