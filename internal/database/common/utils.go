package common

import (
	"regexp"
	"strings"
)

var (
	commentRegex = regexp.MustCompile(`(?m)^\s*--.*$`)
	stringRegex  = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`")

	validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// IsValidIdentifier reports whether name is safe to use as a table or column name.
func IsValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}

// ParseSQLStatements splits a script on semicolons that are outside string
// literals, dropping line comments and empty statements.
func ParseSQLStatements(sql string) []string {
	sql = commentRegex.ReplaceAllString(sql, "")

	inString := make(map[int]bool)
	for _, match := range stringRegex.FindAllStringIndex(sql, -1) {
		for i := match[0]; i < match[1]; i++ {
			inString[i] = true
		}
	}

	statements := make([]string, 0, strings.Count(sql, ";")+1)
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" && !strings.HasPrefix(stmt, "/*") {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i, char := range sql {
		if char == ';' && !inString[i] {
			flush()
			continue
		}
		current.WriteRune(char)
	}
	flush()

	return statements
}
