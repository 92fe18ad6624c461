package tui

import "strings"

// Command represents a parsed command-prompt entry.
type Command struct {
	Name string
	Args []string
}

// commandAliases maps short forms to canonical command names.
var commandAliases = map[string]string{
	"q":       "quit",
	"h":       "help",
	"c":       "chat",
	"signin":  "login",
	"signout": "logout",
	"me":      "profile",
}

// ParseCommand parses a command string (without the leading ':').
// Names are lowercased and aliases resolved.
func ParseCommand(input string) Command {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{}
	}
	name := strings.ToLower(fields[0])
	if canonical, ok := commandAliases[name]; ok {
		name = canonical
	}
	return Command{Name: name, Args: fields[1:]}
}

// Arg returns the i-th argument or empty.
func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}
