package uds

import (
	"context"
	"io"
	"slices"
	"strings"
)

type CmdHnd struct {
	Desc  string
	Usage string
	Fn    func(ctx context.Context, args []string, w io.Writer) error
}

// CommandStore maps the first word of a line to its handler. Built before the service starts
type CommandStore map[string]CmdHnd

// Keys sorted, for help output
func (cs CommandStore) Keys() []string {
	keys := make([]string, 0, len(cs))
	for k := range cs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func parseLine(line string) (string, []string) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}
	return args[0], args[1:]
}
