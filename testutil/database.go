package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/dbschema"
	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
)

const (
	embeddedUser     = "taxonomy_test"
	embeddedPassword = "taxonomy_test"
	templateDatabase = "taxonomy_template"
)

var (
	adminDB      *bun.DB
	sharedEPG    *embeddedpostgres.EmbeddedPostgres
	embeddedPort uint32
)

func freePort() (uint32, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return uint32(port), nil
}

func dsnForDB(dbName string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		embeddedUser, embeddedPassword, embeddedPort, dbName,
	)
}

// RunWithEmbeddedDB is a TestMain helper that starts embedded PostgreSQL
// on a random free port, bootstraps the schema into a template database,
// runs all tests, then stops it. Each package gets its own instance, so
// packages can run in parallel.
//
//	func TestMain(m *testing.M) {
//	    os.Exit(testutil.RunWithEmbeddedDB(m))
//	}
func RunWithEmbeddedDB(m *testing.M) int {
	if err := startEmbeddedDB(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		return 1
	}
	defer stopSharedDB()

	return m.Run()
}

func startEmbeddedDB() error {
	port, err := freePort()
	if err != nil {
		return fmt.Errorf("free port: %w", err)
	}
	embeddedPort = port

	dataDir := filepath.Join(os.TempDir(), fmt.Sprintf("epg-taxonomy-%d", port))
	os.RemoveAll(dataDir)

	sharedEPG = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(embeddedUser).
			Password(embeddedPassword).
			Database(embeddedUser).
			RuntimePath(dataDir),
	)

	if err := sharedEPG.Start(); err != nil {
		return fmt.Errorf("start on port %d: %w", port, err)
	}

	adminDB = openDB(embeddedUser)

	ctx := context.Background()
	if _, err := adminDB.ExecContext(ctx, "DROP DATABASE IF EXISTS "+templateDatabase); err != nil {
		sharedEPG.Stop()
		return fmt.Errorf("drop old template: %w", err)
	}
	if _, err := adminDB.ExecContext(ctx, "CREATE DATABASE "+templateDatabase); err != nil {
		sharedEPG.Stop()
		return fmt.Errorf("create template db: %w", err)
	}

	tmplDB := openDB(templateDatabase)
	if err := dbschema.Bootstrap(ctx, tmplDB); err != nil {
		tmplDB.Close()
		sharedEPG.Stop()
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	tmplDB.Close()

	return nil
}

func openDB(dbName string) *bun.DB {
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsnForDB(dbName)))
	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New(), bun.WithDiscardUnknownColumns())
	registerModels(db)
	return db
}

// registerModels mirrors storage.registerModels — duplicated here (rather
// than imported) because package storage's own _test.go files import
// testutil for TestMain, and testutil importing storage back would cycle.
func registerModels(db *bun.DB) {
	db.RegisterModel(
		(*storagemodels.TaxonomyModel)(nil),
		(*storagemodels.NodeTypeModel)(nil),
		(*storagemodels.AttributeTypeModel)(nil),
		(*storagemodels.NodeModel)(nil),
		(*storagemodels.NodeAttributeModel)(nil),
		(*storagemodels.LoadModel)(nil),
		(*storagemodels.BronzeRowModel)(nil),
		(*storagemodels.TaxonomyVersionModel)(nil),
		(*storagemodels.MappingModel)(nil),
		(*storagemodels.MappingRuleModel)(nil),
		(*storagemodels.MappingRuleAssignmentModel)(nil),
		(*storagemodels.MappingVersionModel)(nil),
		(*storagemodels.ProductionMappingModel)(nil),
		(*storagemodels.AuditLogModel)(nil),
	)
}

func stopSharedDB() {
	if adminDB != nil {
		adminDB.Close()
		adminDB = nil
	}
	if sharedEPG != nil {
		_ = sharedEPG.Stop()
		sharedEPG = nil
	}
	dataDir := filepath.Join(os.TempDir(), fmt.Sprintf("epg-taxonomy-%d", embeddedPort))
	os.RemoveAll(dataDir)
}

// SetupTestDB creates an isolated database copied from the bootstrapped
// template for one test, with its own registered models. Safe for
// parallel execution — each test gets its own database.
// Requires RunWithEmbeddedDB in TestMain.
func SetupTestDB(t *testing.T) bun.IDB {
	t.Helper()

	if adminDB == nil {
		t.Fatal("embedded postgres not started — add TestMain with testutil.RunWithEmbeddedDB(m)")
	}

	short := strings.ReplaceAll(uuid.New().String()[:8], "-", "")
	dbName := "taxonomy_t_" + short

	ctx := context.Background()
	_, err := adminDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s TEMPLATE %s", dbName, templateDatabase))
	if err != nil {
		t.Fatalf("create test db %s: %v", dbName, err)
	}

	db := openDB(dbName)

	t.Cleanup(func() {
		db.Close()
		_, _ = adminDB.ExecContext(context.Background(), "DROP DATABASE IF EXISTS "+dbName)
	})

	return db
}
