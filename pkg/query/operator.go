package query

// Operator is the closed set of comparison operators a filter may use
type Operator string

const (
	Eq  Operator = "eq"
	Ne  Operator = "ne"
	Gt  Operator = "gt"
	Gte Operator = "gte"
	Lt  Operator = "lt"
	Lte Operator = "lte"
	In  Operator = "in"
)

// Operators lists every supported operator
var Operators = []Operator{Eq, Ne, Gt, Gte, Lt, Lte, In}

// ParseOperator resolves a request token such as "gte" into an Operator
func ParseOperator(token string) (Operator, bool) {
	for _, op := range Operators {
		if string(op) == token {
			return op, true
		}
	}
	return "", false
}

// OperatorSet is a set of operators permitted by a translation
type OperatorSet map[Operator]struct{}

// NewOperatorSet builds a set from the given operators
func NewOperatorSet(ops ...Operator) OperatorSet {
	set := make(OperatorSet, len(ops))
	for _, op := range ops {
		set[op] = struct{}{}
	}
	return set
}

// Allows reports whether op is in the set
func (s OperatorSet) Allows(op Operator) bool {
	_, ok := s[op]
	return ok
}
