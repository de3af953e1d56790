// Package registry is the derived view over the supervisor's running
// handles: the namespaced, deduplicated function-calling schema consumed by
// the model provider.
package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/7divs7/mcp-hub/internal/schema"
	"github.com/7divs7/mcp-hub/internal/supervisor"
)

// Registry aggregates tool catalogs across all running servers. It holds no
// state of its own; every query re-reads the supervisor, so the view is never
// staler than one dispatch cycle.
type Registry struct {
	sup *supervisor.Supervisor
}

func New(sup *supervisor.Supervisor) *Registry {
	return &Registry{sup: sup}
}

// ListAll queries every running server for its tool catalog and flattens the
// result into descriptors. A query failure on one server is skipped so it
// never aborts enumeration of the others.
func (r *Registry) ListAll(ctx context.Context) []schema.ToolDescriptor {
	sessions := r.sup.RunningSessions()
	names := make([]string, 0, len(sessions))
	for name := range sessions {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []schema.ToolDescriptor
	for _, name := range names {
		tools, err := sessions[name].ListTools(ctx)
		if err != nil {
			slog.Warn("tools/list failed, skipping server", "server", name, "err", err)
			continue
		}
		for _, t := range tools {
			out = append(out, schema.ToolDescriptor{
				Server:      name,
				Tool:        t.Name,
				Description: t.Description,
				InputSchema: t.InputSchema,
			})
		}
	}
	return out
}

// BuildSchema formats the aggregated catalog as OpenAI function specs with
// namespaced "<server>:<tool>" names. Recomputed per dispatch: tool sets
// change at runtime as servers are added.
func (r *Registry) BuildSchema(ctx context.Context) []map[string]any {
	descriptors := r.ListAll(ctx)
	list := make([]map[string]any, 0, len(descriptors))
	for _, d := range descriptors {
		var params any
		if err := json.Unmarshal(d.InputSchema, &params); err != nil || params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		list = append(list, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        d.ID(),
				"description": d.Description,
				"parameters":  params,
			},
		})
	}
	return list
}
