// Package commands models client commands and dispatches them against
// the dataset and the snapshot codec.
package commands

import (
	"errors"

	"github.com/hashbeam/snapkv/app/config"
	"github.com/hashbeam/snapkv/app/store"
)

// Command is one decoded client request. Type is the command name as
// sent; matching is case-insensitive. Args are byte-exact.
type Command struct {
	Type string
	Args []string
}

// RequestContext carries the shared state a handler may touch.
type RequestContext struct {
	Store  store.DataStore
	Config config.Configuration
}

// NewCommand builds a Command from the decoded elements of a request
// array.
func NewCommand(args [][]byte) (Command, error) {
	if len(args) == 0 {
		return Command{}, errors.New("empty command")
	}

	cmd := Command{Type: string(args[0])}

	for _, arg := range args[1:] {
		cmd.Args = append(cmd.Args, string(arg))
	}

	return cmd, nil
}

// Execute routes the command and marshals its reply.
func (c Command) Execute(router commandRouter, ctx RequestContext) ([]byte, error) {
	result := router.Handle(c, ctx)
	return result.Marshal()
}
