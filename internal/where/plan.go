package where

// FieldCondition is the planner-facing view of one root-level field
// condition. Conditions nested under $and/$or are never exposed here.
type FieldCondition struct {
	Field   string
	Op      Operator
	Operand any
}

// Partition splits the root-level implicit-AND conditions into those the
// caller accepts (typically: conditions answerable by an index) and a
// residual expression covering everything else. Combinator conditions
// always land in the residual. The receiver is not modified; evaluating the
// residual against rows pre-filtered by the accepted conditions is
// equivalent to evaluating the full expression.
func (e *Expression) Partition(accept func(FieldCondition) bool) ([]FieldCondition, *Expression) {
	if e == nil {
		return nil, nil
	}
	var accepted []FieldCondition
	residual := &Expression{}
	for _, cond := range e.conds {
		fc, ok := cond.(*fieldCond)
		if !ok {
			residual.conds = append(residual.conds, cond)
			continue
		}
		view := FieldCondition{Field: fc.field, Op: fc.op, Operand: fc.operand}
		if accept(view) {
			accepted = append(accepted, view)
		} else {
			residual.conds = append(residual.conds, cond)
		}
	}
	return accepted, residual
}
