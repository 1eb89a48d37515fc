package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rxguard/rxguard/internal/domain/prescription"
)

// Neo4jStore persists the prescription graph in Neo4j. StoreRecord runs in
// a single managed transaction, so a failed write leaves no partial
// subgraph behind.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
}

func (s *Neo4jStore) Mode() string { return ModeConnected }

// Close releases the underlying driver and its connection pool.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

const storeRecordCypher = `
MERGE (p:Patient {name: $name, age: $age, gender: $gender})
CREATE (rx:Prescription {
	id: $id,
	originalPrescription: $originalPrescription,
	status: $status,
	blockchainHash: $blockchainHash,
	timestamp: $timestamp,
	lastUpdated: $lastUpdated
})
CREATE (p)-[:RECEIVED]->(rx)
WITH rx
FOREACH (name IN $medications |
	MERGE (m:Medication {name: name})
	CREATE (rx)-[:INCLUDES]->(m)
)
FOREACH (issue IN $issues |
	CREATE (i:Issue {title: issue.title, description: issue.description, severity: issue.severity})
	CREATE (rx)-[:HAS_ISSUE]->(i)
)
FOREACH (sug IN $suggestions |
	CREATE (sg:Suggestion {title: sug.title, description: sug.description})
	CREATE (rx)-[:HAS_SUGGESTION]->(sg)
)`

// StoreRecord upserts the patient node and attaches a new prescription
// subtree (medications, issues, suggestions) under it.
func (s *Neo4jStore) StoreRecord(ctx context.Context, r *prescription.PrescriptionResult, patient prescription.PatientInfo, fingerprint string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := map[string]any{
		"name":                 patient.Name,
		"age":                  patient.Age,
		"gender":               patient.Gender,
		"id":                   r.ID,
		"originalPrescription": r.OriginalPrescription,
		"status":               r.Status,
		"blockchainHash":       fingerprint,
		"timestamp":            r.Timestamp.UTC(),
		"lastUpdated":          r.LastUpdated.UTC(),
		"medications":          toAnySlice(r.Medications),
		"issues":               issueParams(r.Issues),
		"suggestions":          suggestionParams(r.Suggestions),
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, storeRecordCypher, params)
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("store graph record: %w", err)
	}
	return nil
}

const historyCypher = `
MATCH (p:Patient {name: $name})-[:RECEIVED]->(rx:Prescription)
OPTIONAL MATCH (rx)-[:HAS_ISSUE]->(i:Issue)
OPTIONAL MATCH (rx)-[:HAS_SUGGESTION]->(s:Suggestion)
OPTIONAL MATCH (rx)-[:INCLUDES]->(m:Medication)
RETURN rx,
	collect(DISTINCT i) AS issues,
	collect(DISTINCT s) AS suggestions,
	collect(DISTINCT m.name) AS medications
ORDER BY rx.timestamp DESC`

// History returns every prescription recorded for the named patient, most
// recent first, with issues, suggestions, and medications attached.
func (s *Neo4jStore) History(ctx context.Context, patient prescription.PatientInfo) ([]*prescription.PrescriptionResult, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	raw, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, historyCypher, map[string]any{"name": patient.Name})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("query patient history: %w", err)
	}

	records := raw.([]*neo4j.Record)
	results := make([]*prescription.PrescriptionResult, 0, len(records))
	for _, rec := range records {
		if r := recordToResult(rec); r != nil {
			results = append(results, r)
		}
	}
	return results, nil
}

const byFingerprintCypher = `
MATCH (rx:Prescription {blockchainHash: $blockchainHash})
OPTIONAL MATCH (rx)-[:HAS_ISSUE]->(i:Issue)
OPTIONAL MATCH (rx)-[:HAS_SUGGESTION]->(s:Suggestion)
OPTIONAL MATCH (rx)-[:INCLUDES]->(m:Medication)
RETURN rx,
	collect(DISTINCT i) AS issues,
	collect(DISTINCT s) AS suggestions,
	collect(DISTINCT m.name) AS medications
LIMIT 1`

// ByFingerprint returns the prescription stored under the given
// fingerprint, or ErrNotFound.
func (s *Neo4jStore) ByFingerprint(ctx context.Context, fingerprint string) (*prescription.PrescriptionResult, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	raw, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, byFingerprintCypher, map[string]any{"blockchainHash": fingerprint})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("query by fingerprint: %w", err)
	}

	records := raw.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, prescription.ErrNotFound
	}
	r := recordToResult(records[0])
	if r == nil {
		return nil, prescription.ErrNotFound
	}
	return r, nil
}

const updateRecordCypher = `
MATCH (rx:Prescription {id: $id})
SET rx.status = $status, rx.blockchainHash = $blockchainHash, rx.lastUpdated = $lastUpdated
RETURN rx.id`

// UpdateRecord rewrites the mutable prescription fields after a ledger
// refresh. A missing node is reported as ErrNotFound rather than silently
// matching nothing.
func (s *Neo4jStore) UpdateRecord(ctx context.Context, r *prescription.PrescriptionResult, fingerprint string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := map[string]any{
		"id":             r.ID,
		"status":         r.Status,
		"blockchainHash": fingerprint,
		"lastUpdated":    r.LastUpdated.UTC(),
	}

	raw, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, updateRecordCypher, params)
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return len(recs) > 0, nil
	})
	if err != nil {
		return fmt.Errorf("update graph record: %w", err)
	}
	if !raw.(bool) {
		return prescription.ErrNotFound
	}
	return nil
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func issueParams(issues []prescription.Issue) []any {
	out := make([]any, len(issues))
	for i, issue := range issues {
		out[i] = map[string]any{
			"title":       issue.Title,
			"description": issue.Description,
			"severity":    issue.Severity,
		}
	}
	return out
}

func suggestionParams(suggestions []prescription.Suggestion) []any {
	out := make([]any, len(suggestions))
	for i, sug := range suggestions {
		out[i] = map[string]any{
			"title":       sug.Title,
			"description": sug.Description,
		}
	}
	return out
}

func recordToResult(rec *neo4j.Record) *prescription.PrescriptionResult {
	raw, ok := rec.Get("rx")
	if !ok {
		return nil
	}
	node, ok := raw.(dbtype.Node)
	if !ok {
		return nil
	}

	r := &prescription.PrescriptionResult{
		ID:                   stringProp(node.Props, "id"),
		OriginalPrescription: stringProp(node.Props, "originalPrescription"),
		Status:               stringProp(node.Props, "status"),
		Timestamp:            timeProp(node.Props, "timestamp"),
		LastUpdated:          timeProp(node.Props, "lastUpdated"),
		Issues:               collectIssues(rec),
		Suggestions:          collectSuggestions(rec),
		Medications:          collectStrings(rec, "medications"),
	}
	if r.LastUpdated.IsZero() {
		r.LastUpdated = r.Timestamp
	}
	return r
}

func collectIssues(rec *neo4j.Record) []prescription.Issue {
	nodes := collectNodes(rec, "issues")
	if len(nodes) == 0 {
		return nil
	}
	issues := make([]prescription.Issue, 0, len(nodes))
	for _, n := range nodes {
		issues = append(issues, prescription.Issue{
			Title:       stringProp(n.Props, "title"),
			Description: stringProp(n.Props, "description"),
			Severity:    stringProp(n.Props, "severity"),
		})
	}
	return issues
}

func collectSuggestions(rec *neo4j.Record) []prescription.Suggestion {
	nodes := collectNodes(rec, "suggestions")
	if len(nodes) == 0 {
		return nil
	}
	suggestions := make([]prescription.Suggestion, 0, len(nodes))
	for _, n := range nodes {
		suggestions = append(suggestions, prescription.Suggestion{
			Title:       stringProp(n.Props, "title"),
			Description: stringProp(n.Props, "description"),
		})
	}
	return suggestions
}

func collectNodes(rec *neo4j.Record, key string) []dbtype.Node {
	raw, ok := rec.Get(key)
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	nodes := make([]dbtype.Node, 0, len(list))
	for _, item := range list {
		if n, ok := item.(dbtype.Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func collectStrings(rec *neo4j.Record, key string) []string {
	raw, ok := rec.Get(key)
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func timeProp(props map[string]any, key string) time.Time {
	if v, ok := props[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}
