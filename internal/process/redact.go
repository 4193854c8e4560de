package process

import (
	"bytes"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// plainVars are expanded often and never carry secrets, so logs keep
// them readable.
var plainVars = map[string]bool{
	"HOME": true, "USER": true, "PWD": true, "OLDPWD": true,
	"SHELL": true, "PATH": true, "LANG": true, "TERM": true,
	"HOSTNAME": true, "LOGNAME": true, "TMPDIR": true,
}

// Redact masks variable expansions and assignment values in a shell
// command so it can be written to the operator log.  `$?`, `$1` and the
// other special parameters are left alone.  Commands that do not parse
// are replaced wholesale.
func Redact(command string) string {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return "<unparsable command>"
	}

	syntax.Walk(prog, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.ParamExp:
			if n.Param != nil && syntax.ValidName(n.Param.Value) && !plainVars[n.Param.Value] {
				n.Param.Value = "REDACTED"
			}
		case *syntax.Assign:
			if n.Name != nil && !plainVars[n.Name.Value] && n.Value != nil {
				n.Value.Parts = []syntax.WordPart{&syntax.Lit{Value: "***"}}
			}
		}
		return true
	})

	var buf bytes.Buffer
	if err := syntax.NewPrinter().Print(&buf, prog); err != nil {
		return "<unparsable command>"
	}
	return strings.TrimRight(buf.String(), "\n")
}
