package expr

// Operator is a comparison operator.
type Operator uint8

const (
	OpUnknown Operator = iota
	OpEQ
	OpNE
	OpGE
	OpGT
	OpLE
	OpLT
	OpMatches
)

var opToStr = map[Operator]string{
	OpEQ:      "==",
	OpNE:      "!=",
	OpGE:      ">=",
	OpGT:      ">",
	OpLE:      "<=",
	OpLT:      "<",
	OpMatches: "matches",
}

func (m Operator) String() string {
	if s, ok := opToStr[m]; ok {
		return s
	}
	return "?"
}

// OperatorFromString maps operator text (==, eq, matches, ...) to an
// Operator; OpUnknown when not recognized.
func OperatorFromString(s string) Operator {
	switch s {
	case "==", "=", "eq":
		return OpEQ
	case "!=", "<>", "ne":
		return OpNE
	case ">=", "ge":
		return OpGE
	case ">", "gt":
		return OpGT
	case "<=", "le":
		return OpLE
	case "<", "lt":
		return OpLT
	case "matches", "like":
		return OpMatches
	}
	return OpUnknown
}

// LogicOp is the operator of a Logical node.
type LogicOp uint8

const (
	LogicAnd LogicOp = iota + 1
	LogicOr
	LogicNot
)

func (m LogicOp) String() string {
	switch m {
	case LogicAnd:
		return "and"
	case LogicOr:
		return "or"
	case LogicNot:
		return "not"
	}
	return "?"
}

// Supported method names.
const (
	MethodBetween = "Between"
	MethodIn      = "In"
)
