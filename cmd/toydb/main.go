// Command toydb is a minimal embedding CLI demonstrating the core
// engine end to end: open a database, create a table, insert and scan
// rows, print the result, exit.
//
// There is no SQL front end in this module (spec §1 places tokenizing
// and parsing out of scope); this demo builds plan.Plan trees directly,
// grounded on the teacher's cmd/demo_executor/main.go, which likewise
// drives its executors with hand-built operator trees rather than SQL
// text.
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/asky/toydb/config"
	"github.com/asky/toydb/db"
	"github.com/asky/toydb/expr"
	"github.com/asky/toydb/plan"
	"github.com/asky/toydb/value"
)

func main() {
	dataDir := flag.String("data", "", "data directory (required)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *dataDir == "" {
		fmt.Fprintln(os.Stderr, "toydb: -data is required")
		os.Exit(1)
	}

	if err := run(*dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "toydb: %v\n", err)
		os.Exit(1)
	}
}

// run opens (creating if absent) the database at dataDir, demonstrates
// CreateTable/Insert/SeqScan/Project through the facade, and
// prints the final result set (spec §4.8).
func run(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	cfg := config.Default(dataDir)

	database, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	schema := value.NewSchema([]value.Column{
		{Name: "id", Type: value.Int},
		{Name: "name", Type: value.Text},
	}, []int{0})

	if _, ok := lookupDemoTable(database); !ok {
		if err := database.CreateTable("users", schema); err != nil {
			return err
		}
	}
	tm, ok := lookupDemoTable(database)
	if !ok {
		return fmt.Errorf("users table missing after create")
	}

	insertPlan := plan.Insert{
		TableID: tm,
		Rows: [][]expr.Expr{
			{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("Alice")}},
			{expr.Literal{Value: value.NewInt(2)}, expr.Literal{Value: value.NewText("Bob")}},
		},
	}
	if _, err := database.Exec(insertPlan); err != nil {
		log.WithError(err).Warn("toydb: insert skipped (likely already present)")
	}

	scanPlan := plan.Project{
		Input:   plan.SeqScan{TableID: tm},
		Columns: []int{0, 1},
	}
	result, err := database.Exec(scanPlan)
	if err != nil {
		return err
	}

	rows, ok := result.(db.Rows)
	if !ok {
		return fmt.Errorf("toydb: unexpected result type %T", result)
	}
	fmt.Println(rows.Columns)
	for _, r := range rows.Rows {
		fmt.Println(r)
	}
	return nil
}

// lookupDemoTable resolves the users table id through the facade's
// exported catalog-backed lookup, added so the demo is idempotent
// across repeated runs against the same data directory.
func lookupDemoTable(database *db.Database) (uint64, bool) {
	return database.TableID("users")
}
