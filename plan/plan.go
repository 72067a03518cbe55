// Package plan defines the external interface the executor consumes
// (spec §6): a tagged PhysicalPlan tree built by something outside this
// module (an external parser/planner) and handed to exec.Build.
//
// Shape grounded on the teacher's plan/physical_plan.go
// PhysicalPlan/BasePhysicalPlan interface-plus-base-struct pattern,
// trimmed to the node set and fields spec §6 names: no cost model or
// statistics, since planning itself is out of scope (spec §1
// Non-goals).
package plan

import "github.com/asky/toydb/expr"

// Plan is a node in a PhysicalPlan tree.
type Plan interface {
	isPlan()
}

// SeqScan reads every live row of the named table.
type SeqScan struct {
	TableID uint64
}

func (SeqScan) isPlan() {}

// Filter keeps only input rows for which Predicate evaluates to
// Bool(true).
type Filter struct {
	Input     Plan
	Predicate expr.Expr
}

func (Filter) isPlan() {}

// Project narrows each input row to Columns, in the given order.
type Project struct {
	Input   Plan
	Columns []int
}

func (Project) isPlan() {}

// Insert materializes each row in Rows (a vector of resolved scalar
// expressions evaluated against an empty row) into TableID.
type Insert struct {
	TableID uint64
	Rows    [][]expr.Expr
}

func (Insert) isPlan() {}

// Assignment sets column Ordinal to the value Expr evaluates to.
type Assignment struct {
	Ordinal int
	Expr    expr.Expr
}

// Update applies Assignments to every row of TableID matching the
// optional Predicate (nil matches every row).
type Update struct {
	TableID     uint64
	Assignments []Assignment
	Predicate   expr.Expr
}

func (Update) isPlan() {}

// Delete removes every row of TableID matching the optional Predicate
// (nil matches every row).
type Delete struct {
	TableID   uint64
	Predicate expr.Expr
}

func (Delete) isPlan() {}
