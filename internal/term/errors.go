package term

import "fmt"

// LexicalError reports an atom byte string that does not parse as any
// recognized term form (spec §3 grammar, §5 SchemaError).
type LexicalError struct {
	Input []byte
	Msg   string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("term: invalid lexical form %q: %s", e.Input, e.Msg)
}
