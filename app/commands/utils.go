package commands

import (
	"errors"
	"strconv"
	"strings"
)

type SetCommandOptions struct {
	Key          string
	Value        string
	ExpireMillis int64
	HasExpiry    bool
}

var errNotEnoughArgs = errors.New("not enough arguments")

// parseSetCommandOptions parses the arguments of SET: key, value, then
// an optional PX <ms> pair. The first PX match wins; a trailing PX with
// no value after it is ignored.
func parseSetCommandOptions(args []string) (SetCommandOptions, error) {
	if len(args) < 2 {
		return SetCommandOptions{}, errNotEnoughArgs
	}

	options := SetCommandOptions{
		Key:   args[0],
		Value: args[1],
	}

	for i := 2; i < len(args)-1; i++ {
		if strings.EqualFold(args[i], "PX") {
			millis, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return SetCommandOptions{}, err
			}

			options.ExpireMillis = millis
			options.HasExpiry = true
			break
		}
	}

	return options, nil
}
