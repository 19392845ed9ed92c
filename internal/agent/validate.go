package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/commercelens/commercelens/internal/schema"
)

// dangerousPatterns are statement fragments that must never reach the
// database, even inside a SELECT.
var dangerousPatterns = []string{
	"drop table", "drop database", "delete from", "truncate",
	"alter table", "create table", "insert into", "update ",
	"grant ", "revoke ", "attach ", "install ", "copy ",
	"pragma ", "export database",
}

var tablePattern = regexp.MustCompile(`(?i)\b(?:from|join)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

// ValidateSQL checks a generated query before execution: it must be a single
// SELECT (WITH is allowed), free of write operations, and reference only
// tables present in the schema snapshot.
func ValidateSQL(sql string, desc schema.Descriptor) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return fmt.Errorf("SQL query cannot be empty")
	}

	lowerSQL := strings.ToLower(trimmed)

	if strings.Contains(lowerSQL, ";") {
		return fmt.Errorf("SQL must be a single statement")
	}

	if !strings.HasPrefix(lowerSQL, "select") && !strings.HasPrefix(lowerSQL, "with") {
		return fmt.Errorf("only SELECT statements are allowed")
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerSQL, pattern) {
			return fmt.Errorf("SQL contains forbidden operation: %s", strings.TrimSpace(pattern))
		}
	}

	return validateTables(trimmed, desc)
}

// validateTables checks every FROM/JOIN target against the schema snapshot.
// CTE names defined in the query itself are allowed.
func validateTables(sql string, desc schema.Descriptor) error {
	cteNames := collectCTENames(sql)

	for _, match := range tablePattern.FindAllStringSubmatch(sql, -1) {
		name := match[1]
		if cteNames[strings.ToLower(name)] {
			continue
		}

		if !desc.HasTable(name) {
			return fmt.Errorf("unknown table: %s", name)
		}
	}

	return nil
}

var ctePattern = regexp.MustCompile(`(?i)(?:with|,)\s*([a-zA-Z_][a-zA-Z0-9_]*)\s+as\s*\(`)

// collectCTENames extracts names introduced by WITH clauses.
func collectCTENames(sql string) map[string]bool {
	names := make(map[string]bool)

	for _, match := range ctePattern.FindAllStringSubmatch(sql, -1) {
		names[strings.ToLower(match[1])] = true
	}

	return names
}
