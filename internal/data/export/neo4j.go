// Package export loads the type hierarchy and the violations of a run into
// Neo4j with batched UNWIND statements.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"apiguard/internal/engine/hierarchy"
	"apiguard/internal/engine/report"
)

const batchSize = 1000

// runner executes one Cypher statement.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

type driverRunner struct {
	driver neo4j.DriverWithContext
}

func (d driverRunner) Run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, d.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

// Exporter writes analysis results to a graph database.
type Exporter struct {
	run    runner
	driver neo4j.DriverWithContext
}

// Connect creates a driver and verifies that the server is reachable.
func Connect(ctx context.Context, uri, user, password string) (*Exporter, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j %s: %w", uri, err)
	}
	return &Exporter{run: driverRunner{driver: driver}, driver: driver}, nil
}

func (e *Exporter) Close(ctx context.Context) error {
	if e == nil || e.driver == nil {
		return nil
	}
	return e.driver.Close(ctx)
}

// Export writes every node and edge of g, then the violations of runID.
// With clean set, previously exported data is removed first.
func (e *Exporter) Export(ctx context.Context, g *hierarchy.Graph, violations []report.ViolationRecord, runID string, clean bool) error {
	if clean {
		if err := e.Clean(ctx); err != nil {
			return err
		}
	}
	if err := e.createIndexes(ctx); err != nil {
		return err
	}

	types, edges := graphBatches(g)
	slog.Debug("exporting hierarchy", "types", len(types), "edges", len(edges))
	if err := e.runBatched(ctx, mergeTypes, types); err != nil {
		return fmt.Errorf("export types: %w", err)
	}
	if err := e.runBatched(ctx, mergeEdges, edges); err != nil {
		return fmt.Errorf("export edges: %w", err)
	}

	rows := violationBatch(violations, runID)
	if err := e.runBatched(ctx, mergeViolations, rows); err != nil {
		return fmt.Errorf("export violations: %w", err)
	}
	slog.Info("exported to neo4j", "types", len(types), "edges", len(edges), "violations", len(rows))
	return nil
}

// Clean removes all nodes and relationships written by earlier exports.
func (e *Exporter) Clean(ctx context.Context) error {
	for _, q := range []string{
		"MATCH ()-[r:VIOLATES]->() DELETE r",
		"MATCH ()-[r:EXTENDS]->() DELETE r",
		"MATCH ()-[r:IMPLEMENTS]->() DELETE r",
		"MATCH (n:JavaType) DETACH DELETE n",
	} {
		if err := e.run.Run(ctx, q, nil); err != nil {
			return fmt.Errorf("clean graph: %w", err)
		}
	}
	return nil
}

func (e *Exporter) createIndexes(ctx context.Context) error {
	q := "CREATE INDEX java_type_name IF NOT EXISTS FOR (n:JavaType) ON (n.name)"
	if err := e.run.Run(ctx, q, nil); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (e *Exporter) runBatched(ctx context.Context, cypher string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := e.run.Run(ctx, cypher, map[string]any{"batch": rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

const (
	mergeTypes = `UNWIND $batch AS row
MERGE (n:JavaType {name: row.name})
SET n.kind = row.kind, n.component = row.component, n.version = row.version,
    n.restrictions = row.restrictions, n.provider = row.provider,
    n.consumer = row.consumer, n.phantom = row.phantom`

	mergeEdges = `UNWIND $batch AS row
MATCH (a:JavaType {name: row.from})
MATCH (b:JavaType {name: row.to})
FOREACH (_ IN CASE WHEN row.kind = 'extends' THEN [1] ELSE [] END | MERGE (a)-[:EXTENDS]->(b))
FOREACH (_ IN CASE WHEN row.kind = 'implements' THEN [1] ELSE [] END | MERGE (a)-[:IMPLEMENTS]->(b))`

	mergeViolations = `UNWIND $batch AS row
MERGE (c:JavaType {name: row.consumer})
MERGE (t:JavaType {name: row.target})
CREATE (c)-[:VIOLATES {run_id: row.run_id, kind: row.kind, element: row.element,
    origin: row.origin, location: row.location, line: row.line}]->(t)`
)

func graphBatches(g *hierarchy.Graph) (types, edges []map[string]any) {
	nodes := g.Nodes()
	types = make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		row := map[string]any{
			"name":         n.Name,
			"kind":         "phantom",
			"component":    "",
			"version":      "",
			"restrictions": "",
			"provider":     false,
			"consumer":     false,
			"phantom":      n.Phantom(),
		}
		if t := n.Type; t != nil {
			row["kind"] = t.Kind.String()
			row["component"] = t.Component
			row["version"] = t.Version
			row["restrictions"] = t.Restrictions.String()
			row["provider"] = t.Provider
			row["consumer"] = t.Consumer
		}
		types = append(types, row)
		for _, edge := range n.Edges {
			edges = append(edges, map[string]any{
				"from": n.Name,
				"to":   g.Target(edge),
				"kind": edge.Kind.String(),
			})
		}
	}
	return types, edges
}

func violationBatch(violations []report.ViolationRecord, runID string) []map[string]any {
	rows := make([]map[string]any, 0, len(violations))
	for _, v := range violations {
		rows = append(rows, map[string]any{
			"run_id":   runID,
			"consumer": v.Location.Type,
			"target":   v.Element.Type,
			"kind":     v.Kind.String(),
			"element":  v.Element.String(),
			"origin":   v.Origin.String(),
			"location": v.Location.String(),
			"line":     v.Location.Line,
		})
	}
	return rows
}
