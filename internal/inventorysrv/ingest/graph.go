package ingest

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/bom"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

// adjacency maps a bom-ref to the refs it depends on, deduplicated and in
// document order.
type adjacency map[string][]string

func buildAdjacency(deps []bom.Dependency) adjacency {
	adj := make(adjacency, len(deps))
	for _, d := range deps {
		seen := make(map[string]struct{}, len(adj[d.Ref]))
		for _, r := range adj[d.Ref] {
			seen[r] = struct{}{}
		}
		for _, on := range d.DependsOn {
			if _, ok := seen[on]; ok {
				continue
			}
			seen[on] = struct{}{}
			adj[d.Ref] = append(adj[d.Ref], on)
		}
	}
	return adj
}

// processDependencyGraph rewrites the direct dependencies of the project
// and of every component and service from the document graph.
func (e *engine) processDependencyGraph(ctx context.Context) error {
	adj := buildAdjacency(e.doc.Dependencies)

	p := e.project
	changes := &models.Changes{}
	if p.BomRef != "" {
		models.SetIfChanged(changes, "direct_dependencies", &p.DirectDependencies, e.resolveDirectDependencies(ctx, p.BomRef, adj[p.BomRef]))
	} else {
		models.SetIfChanged(changes, "direct_dependencies", &p.DirectDependencies, "")
	}
	if !changes.Empty() {
		e.tx.UpdateProject(ctx, p, changes)
		if err := e.tx.Flush(ctx); err != nil {
			return err
		}
	}

	// Refs of collapsed duplicates contribute to the edges of the kept node.
	var order []models.ComponentIdentity
	merged := make(map[models.ComponentIdentity]*mergedRefs)
	for _, ref := range e.index.Refs() {
		id, _ := e.index.Get(ref)
		m, ok := merged[id]
		if !ok {
			m = &mergedRefs{ref: ref, seen: make(map[string]struct{})}
			merged[id] = m
			order = append(order, id)
		}
		m.add(adj[ref])
	}

	for _, id := range order {
		m := merged[id]
		deps := e.resolveDirectDependencies(ctx, m.ref, m.dependsOn)
		if c, ok := e.persistentComponents[id]; ok {
			changes := &models.Changes{}
			if models.SetIfChanged(changes, "direct_dependencies", &c.DirectDependencies, deps) {
				e.tx.UpdateComponent(ctx, c, changes)
			}
			continue
		}
		if s, ok := e.persistentServices[id]; ok {
			changes := &models.Changes{}
			if models.SetIfChanged(changes, "direct_dependencies", &s.DirectDependencies, deps) {
				e.tx.UpdateService(ctx, s, changes)
			}
			continue
		}
		log.Ctx(ctx).Warn().Str("bom_ref", m.ref).Msg("bom-ref does not resolve to a persisted component or service")
	}
	return e.tx.Flush(ctx)
}

// mergedRefs gathers the dependsOn refs of every bom-ref of one identity,
// unique and in document order.
type mergedRefs struct {
	ref       string
	dependsOn []string
	seen      map[string]struct{}
}

func (m *mergedRefs) add(refs []string) {
	for _, r := range refs {
		if _, ok := m.seen[r]; ok {
			continue
		}
		m.seen[r] = struct{}{}
		m.dependsOn = append(m.dependsOn, r)
	}
}

// resolveDirectDependencies returns the JSON array of the identities in on,
// or "" when there are none. Refs that resolve to nothing are skipped.
func (e *engine) resolveDirectDependencies(ctx context.Context, ref string, on []string) string {
	if len(on) == 0 {
		return ""
	}
	ids := make([]models.ComponentIdentity, 0, len(on))
	for _, dep := range on {
		id, ok := e.index.Get(dep)
		if !ok {
			log.Ctx(ctx).Warn().Str("bom_ref", ref).Str("depends_on", dep).Msg("dependency refers to an unknown bom-ref")
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ""
	}
	data, err := json.Marshal(ids)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("bom_ref", ref).Msg("unable to serialize direct dependencies")
		return ""
	}
	return string(data)
}
