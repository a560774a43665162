package vm

import (
	"ember/types"
)

// Instr is one bytecode instruction with up to two operands
type Instr struct {
	Op OpCode
	A  int
	B  int
}

// Lambda is a compiled function body: the main entry of a script, the body
// of a module or a function literal. Lambdas are immutable after generation
// and shared by clones.
type Lambda struct {
	Name       string
	Entry      string // "main", "module" or "function"
	File       string
	Code       []Instr
	Constants  []types.Value
	Funcs      []*Lambda
	LineInfo   []LineEntry
	NumParams  int
	NumLocals  int
	LocalNames []string
	Arrow      bool
}

// LineEntry maps bytecode IP to source line
type LineEntry struct {
	StartIP int // First IP for this line
	Line    int // Source line number
}

// LineForIP returns the source line number for a given IP
func (l *Lambda) LineForIP(ip int) int {
	for i := len(l.LineInfo) - 1; i >= 0; i-- {
		if l.LineInfo[i].StartIP <= ip {
			return l.LineInfo[i].Line
		}
	}
	return 0
}

// Handler is an active try block of a frame
type Handler struct {
	CatchIP int // Handler code location
	Depth   int // Operand stack depth to unwind to
}
