package sqlscan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFindsQueryWithLineNumber(t *testing.T) {
	content := "import db\n\nquery = \"SELECT id FROM users\"\n"

	records := NewMatcher().Scan(content)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, VerbSelect, rec.QueryType)
	assert.Equal(t, 3, rec.LineNumber)
	assert.Equal(t, "SELECT id FROM users", rec.Query)
	assert.Equal(t, []string{"users"}, rec.Tables)
	assert.Equal(t, `query = "SELECT id FROM users"`, rec.Context)
}

func TestScanAllVerbs(t *testing.T) {
	content := `a = "SELECT name FROM customers WHERE id = 1"
b = "INSERT INTO orders (id) VALUES (1)"
c = "UPDATE accounts SET balance = 0"
d = "DELETE FROM sessions"
e = "CREATE TABLE audit_log (id INT)"
f = "DROP TABLE temp_results"`

	records := NewMatcher().Scan(content)
	verbs := make([]string, 0, len(records))
	for _, rec := range records {
		verbs = append(verbs, rec.QueryType)
	}

	assert.Contains(t, verbs, VerbSelect)
	assert.Contains(t, verbs, VerbInsert)
	assert.Contains(t, verbs, VerbUpdate)
	assert.Contains(t, verbs, VerbDelete)
	assert.Contains(t, verbs, VerbCreate)
	assert.Contains(t, verbs, VerbDrop)
}

// A statement broken across physical lines is invisible to the matcher;
// see the Scan doc comment.
func TestScanDoesNotMatchAcrossLines(t *testing.T) {
	content := "q = \"\"\"SELECT id\nFROM users\"\"\"\n"
	records := NewMatcher().Scan(content)
	assert.Empty(t, records)
}

func TestScanCaseInsensitive(t *testing.T) {
	records := NewMatcher().Scan(`q = "select id from users"`)
	require.Len(t, records, 1)
	assert.Equal(t, VerbSelect, records[0].QueryType)
}

func TestClassifyParsedStatements(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		verb    string
		tables  []string
		columns []string
	}{
		{"select", "SELECT id FROM users", VerbSelect, []string{"users"}, []string{"id"}},
		{"select join", "SELECT u.id FROM users u JOIN orders o ON u.id = o.uid", VerbSelect, []string{"orders", "users"}, []string{"id"}},
		{"delete", "DELETE FROM sessions", VerbDelete, []string{"sessions"}, nil},
		{"update full", "UPDATE accounts SET balance = 0", VerbUpdate, []string{"accounts"}, []string{"balance"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.input)
			assert.Equal(t, tt.verb, c.Verb)
			assert.Equal(t, tt.tables, c.Tables)
			if tt.columns != nil {
				assert.Equal(t, tt.columns, c.Columns)
			}
		})
	}
}

// Candidates are heuristically cut, so truncated statements must still
// classify by verb with best-effort tables and never propagate a parse
// failure.
func TestClassifyTruncatedCandidates(t *testing.T) {
	tests := []struct {
		input  string
		verb   string
		tables []string
	}{
		{"UPDATE users SET", VerbUpdate, []string{"users"}},
		{"INSERT INTO orders", VerbInsert, []string{"orders"}},
		{"CREATE TABLE audit_log", VerbCreate, []string{"audit_log"}},
		{"DROP TABLE temp_results", VerbDrop, []string{"temp_results"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := Classify(tt.input)
			assert.Equal(t, tt.verb, c.Verb)
			assert.Equal(t, tt.tables, c.Tables)
		})
	}
}

// Table and column sets are always arrays on the wire, even when the
// fallback path finds nothing to put in them.
func TestClassifiedRecordsSerializeEmptySets(t *testing.T) {
	records := NewMatcher().Scan(`q = "INSERT INTO orders"`)
	require.Len(t, records, 1)

	data, err := json.Marshal(records[0])
	require.NoError(t, err)

	assert.Contains(t, string(data), `"columns":[]`)
	assert.Contains(t, string(data), `"tables":["orders"]`)
	assert.NotContains(t, string(data), "null")

	c := Classify("this is not sql at all")
	assert.NotNil(t, c.Tables)
	assert.NotNil(t, c.Columns)
}

func TestClassifyGarbage(t *testing.T) {
	c := Classify("this is not sql at all")
	assert.Equal(t, VerbUnknown, c.Verb)
	assert.Empty(t, c.Tables)
	assert.Empty(t, c.Columns)
}
