package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/hashbeam/snapkv/app/resp"
	"github.com/rs/zerolog/log"
)

type commandHandler func(c Command, ctx RequestContext) resp.Value

type commandRouter struct {
	handlers map[string]commandHandler
}

func (r *commandRouter) Handle(cmd Command, ctx RequestContext) resp.Value {
	name := strings.ToUpper(cmd.Type)

	handler, ok := r.handlers[name]
	if !ok {
		return resp.ErrorValue(fmt.Sprintf("ERR unknown command '%s'", cmd.Type))
	}

	metrics.GetOrCreateCounter(fmt.Sprintf(`snapkv_commands_total{command=%q}`, name)).Inc()

	return handler(cmd, ctx)
}

var DefaultHandlers = commandRouter{
	handlers: map[string]commandHandler{
		"PING":   pingHandler,
		"ECHO":   echoHandler,
		"SET":    setHandler,
		"GET":    getHandler,
		"KEYS":   keysHandler,
		"CONFIG": configHandler,
		"SAVE":   saveHandler,
	},
}

func wrongArity(name string) resp.Value {
	return resp.ErrorValue(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}

func pingHandler(c Command, _ RequestContext) resp.Value {
	if len(c.Args) > 0 {
		return resp.BulkStringValue(c.Args[0])
	}
	return resp.StringValue("PONG")
}

func echoHandler(c Command, _ RequestContext) resp.Value {
	if len(c.Args) < 1 {
		return wrongArity(c.Type)
	}
	return resp.BulkStringValue(c.Args[0])
}

func setHandler(c Command, ctx RequestContext) resp.Value {
	options, err := parseSetCommandOptions(c.Args)

	if err == errNotEnoughArgs {
		return wrongArity(c.Type)
	}
	if err != nil {
		return resp.ErrorValue("ERR value is not an integer or out of range")
	}

	if options.HasExpiry {
		ctx.Store.WriteTTL(options.Key, options.Value, options.ExpireMillis)
	} else {
		ctx.Store.Write(options.Key, options.Value)
	}

	return resp.StringValue("OK")
}

func getHandler(c Command, ctx RequestContext) resp.Value {
	if len(c.Args) < 1 {
		return wrongArity(c.Type)
	}

	record, ok := ctx.Store.Read(c.Args[0])
	if !ok {
		return resp.BulkNullStringValue()
	}

	return resp.BulkStringValue(record.Value)
}

func keysHandler(c Command, ctx RequestContext) resp.Value {
	if len(c.Args) < 1 {
		return wrongArity(c.Type)
	}

	// Only the "*" pattern is supported; everything else matches nothing.
	var keys []string
	if c.Args[0] == "*" {
		keys = ctx.Store.Keys()
	}

	values := make([]resp.Value, len(keys))
	for i, key := range keys {
		values[i] = resp.BulkStringValue(key)
	}

	return resp.ArrayValue(values...)
}

func configHandler(c Command, ctx RequestContext) resp.Value {
	if len(c.Args) < 1 {
		return wrongArity(c.Type)
	}

	switch strings.ToUpper(c.Args[0]) {
	case "GET":
		if len(c.Args) < 2 {
			return resp.ErrorValue("ERR syntax error")
		}

		param := c.Args[1]
		value, ok := ctx.Config.Get(param)
		if !ok {
			return resp.ArrayValue()
		}

		return resp.ArrayValue(resp.BulkStringValue(param), resp.BulkStringValue(value))

	case "PATH":
		path, err := filepath.Abs(ctx.Config.SnapshotPath())
		if err != nil {
			return resp.ErrorValue("ERR syntax error")
		}

		return resp.ArrayValue(resp.BulkStringValue("path"), resp.BulkStringValue(path))

	default:
		return resp.ErrorValue("ERR syntax error")
	}
}

func saveHandler(_ Command, ctx RequestContext) resp.Value {
	if err := ctx.Store.SaveSnapshot(ctx.Config.Dir, ctx.Config.DBFilename); err != nil {
		log.Error().Err(err).Msg("snapshot save failed")
		return resp.ErrorValue("ERR failed to save RDB file")
	}

	metrics.GetOrCreateCounter("snapkv_snapshot_saves_total").Inc()

	return resp.StringValue("OK")
}
