package frontend

import "fmt"

// SyntaxError is returned for any lexical or grammatical problem found
// while parsing nedsascript source. It carries enough context to point a
// user at the offending line without needing a separate error-formatting
// pass.
type SyntaxError struct {
	File    string
	Line    int
	Col     int
	Message string
	Source  string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("syntax error: %s", e.Message)
	}
	loc := e.File
	if loc == "" {
		loc = "<input>"
	}
	return fmt.Sprintf("syntax error: %s:%d:%d: %s", loc, e.Line, e.Col, e.Message)
}

// FullMessage shows the error along with the offending source line and a
// cursor pointing at the column of the error.
func (e *SyntaxError) FullMessage() string {
	if e.Source == "" {
		return e.Error()
	}
	cursor := make([]byte, 0, e.Col)
	for i := 0; i < e.Col-1; i++ {
		cursor = append(cursor, ' ')
	}
	cursor = append(cursor, '^')
	return fmt.Sprintf("%s\n%s\n%s", e.Source, string(cursor), e.Error())
}
