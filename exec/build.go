package exec

import (
	"fmt"

	"github.com/asky/toydb/plan"
)

// Build translates a plan.Plan tree into an operator tree ready to be
// Open/Next/Close-driven. It is the only place exec depends on the
// plan package's node shapes (spec §6's external PhysicalPlan
// interface).
func Build(p plan.Plan) (Operator, error) {
	switch n := p.(type) {
	case plan.SeqScan:
		return &SeqScan{TableID: n.TableID}, nil
	case plan.Filter:
		child, err := Build(n.Input)
		if err != nil {
			return nil, err
		}
		return &Filter{Child: child, Predicate: n.Predicate}, nil
	case plan.Project:
		child, err := Build(n.Input)
		if err != nil {
			return nil, err
		}
		return &Project{Child: child, Columns: n.Columns}, nil
	case plan.Insert:
		return &Insert{TableID: n.TableID, Rows: n.Rows}, nil
	case plan.Update:
		assigns := make([]Assignment, len(n.Assignments))
		for i, a := range n.Assignments {
			assigns[i] = Assignment{Ordinal: a.Ordinal, Expr: a.Expr}
		}
		return &Update{TableID: n.TableID, Assignments: assigns, Predicate: n.Predicate}, nil
	case plan.Delete:
		return &Delete{TableID: n.TableID, Predicate: n.Predicate}, nil
	default:
		return nil, fmt.Errorf("exec: unsupported plan node %T", p)
	}
}
