package sqlscan

import (
	"strings"

	"github.com/xwb1989/sqlparser"

	"pyfacts/internal/shared/util"
)

const (
	VerbSelect  = "SELECT"
	VerbInsert  = "INSERT"
	VerbUpdate  = "UPDATE"
	VerbDelete  = "DELETE"
	VerbCreate  = "CREATE"
	VerbDrop    = "DROP"
	VerbUnknown = "UNKNOWN"
)

// Classification is the shallow parse of one statement candidate: its verb
// and the tables and columns it references. Column extraction is
// best-effort and may be empty.
type Classification struct {
	Verb    string
	Tables  []string
	Columns []string
}

// Classify determines the verb and referenced tables of a candidate
// statement. Candidates are heuristically cut substrings, so a full parse
// often fails; in that case the verb is still recovered from the first
// statement keyword and tables are guessed from the token following
// FROM/INTO/UPDATE/TABLE. Only a candidate with no statement keyword at all
// classifies as UNKNOWN.
func Classify(candidate string) Classification {
	stmt, err := sqlparser.Parse(candidate)
	if err != nil {
		return fallbackClassify(candidate)
	}

	var c Classification
	switch s := stmt.(type) {
	case *sqlparser.Select:
		c.Verb = VerbSelect
		c.Tables = tablesFromExprs(s.From)
		c.Columns = columnsFromSelectExprs(s.SelectExprs)
	case *sqlparser.Insert:
		c.Verb = VerbInsert
		c.Tables = []string{s.Table.Name.String()}
		for _, col := range s.Columns {
			c.Columns = append(c.Columns, col.String())
		}
	case *sqlparser.Update:
		c.Verb = VerbUpdate
		c.Tables = tablesFromExprs(s.TableExprs)
		for _, expr := range s.Exprs {
			c.Columns = append(c.Columns, expr.Name.Name.String())
		}
	case *sqlparser.Delete:
		c.Verb = VerbDelete
		c.Tables = tablesFromExprs(s.TableExprs)
	case *sqlparser.DDL:
		switch s.Action {
		case sqlparser.CreateStr:
			c.Verb = VerbCreate
			c.Tables = []string{s.NewName.Name.String()}
		case sqlparser.DropStr:
			c.Verb = VerbDrop
			c.Tables = []string{s.Table.Name.String()}
		default:
			return fallbackClassify(candidate)
		}
	default:
		return fallbackClassify(candidate)
	}

	c.Tables = util.SortedSet(c.Tables)
	c.Columns = util.SortedSet(c.Columns)
	return c
}

func tablesFromExprs(exprs sqlparser.TableExprs) []string {
	var tables []string
	for _, expr := range exprs {
		tables = append(tables, tablesFromExpr(expr)...)
	}
	return tables
}

func tablesFromExpr(expr sqlparser.TableExpr) []string {
	switch t := expr.(type) {
	case *sqlparser.AliasedTableExpr:
		if name, ok := t.Expr.(sqlparser.TableName); ok {
			return []string{name.Name.String()}
		}
	case *sqlparser.JoinTableExpr:
		return append(tablesFromExpr(t.LeftExpr), tablesFromExpr(t.RightExpr)...)
	case *sqlparser.ParenTableExpr:
		return tablesFromExprs(t.Exprs)
	}
	return nil
}

func columnsFromSelectExprs(exprs sqlparser.SelectExprs) []string {
	var columns []string
	for _, expr := range exprs {
		aliased, ok := expr.(*sqlparser.AliasedExpr)
		if !ok {
			continue
		}
		if col, ok := aliased.Expr.(*sqlparser.ColName); ok {
			columns = append(columns, col.Name.String())
		}
	}
	return columns
}

var verbKeywords = map[string]string{
	"SELECT": VerbSelect,
	"INSERT": VerbInsert,
	"UPDATE": VerbUpdate,
	"DELETE": VerbDelete,
	"CREATE": VerbCreate,
	"DROP":   VerbDrop,
}

func fallbackClassify(candidate string) Classification {
	tokens := strings.Fields(candidate)

	c := Classification{
		Verb:    VerbUnknown,
		Tables:  []string{},
		Columns: []string{},
	}
	verbAt := -1
	for i, tok := range tokens {
		if verb, ok := verbKeywords[strings.ToUpper(tok)]; ok {
			c.Verb = verb
			verbAt = i
			break
		}
	}
	if verbAt < 0 {
		return c
	}

	if table := fallbackTable(tokens[verbAt:], c.Verb); table != "" {
		c.Tables = []string{table}
	}
	return c
}

// fallbackTable guesses the table from the token after the verb's anchor
// keyword (FROM, INTO, TABLE, or the verb itself for UPDATE).
func fallbackTable(tokens []string, verb string) string {
	anchor := ""
	switch verb {
	case VerbSelect, VerbDelete:
		anchor = "FROM"
	case VerbInsert:
		anchor = "INTO"
	case VerbCreate, VerbDrop:
		anchor = "TABLE"
	case VerbUpdate:
		if len(tokens) > 1 {
			return cleanIdentifier(tokens[1])
		}
		return ""
	}

	for i, tok := range tokens {
		if strings.ToUpper(tok) == anchor && i+1 < len(tokens) {
			return cleanIdentifier(tokens[i+1])
		}
	}
	return ""
}

func cleanIdentifier(tok string) string {
	return strings.Trim(tok, "`\"'(),;")
}
