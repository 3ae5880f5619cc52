package relational

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"dbbind/schema"
)

func testdataPath(file string) string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	return filepath.Join(dir, "..", "test", "data", "relational", file)
}

type bankDBMS uint16

const (
	bankAccounts bankDBMS = iota
	bankLedger
)

var bankRegistry = schema.MustRegistry("BankDBMS", "", []schema.Binding[bankDBMS]{
	{Variant: bankAccounts, Name: "BankAccounts", Database: "bank", Table: "accounts", FilePath: testdataPath("accounts.sql")},
	{Variant: bankLedger, Name: "BankLedger", Database: "bank", Table: "ledger", FilePath: testdataPath("ledger.sql"), Children: []bankDBMS{bankAccounts}},
}, schema.WithSplitter(SplitterFor(MySQL)))

func (d bankDBMS) String() string { return bankRegistry.MustBinding(d).Name }
func (d bankDBMS) DependentTables() []bankDBMS { return bankRegistry.Children(d) }
func (d bankDBMS) FullName() string { return bankRegistry.MustBinding(d).FullName() }
func (d bankDBMS) DBName() string { return bankRegistry.MustBinding(d).Database }
func (d bankDBMS) AllTables() []bankDBMS { return bankRegistry.Variants() }
func (d bankDBMS) FromTableName(name string) bankDBMS { return bankRegistry.MustLookup(name) }

func (d bankDBMS) CreateTable(ctx context.Context, exec schema.Executor) error {
	return bankRegistry.Create(ctx, exec, d)
}

var _ DBMS[bankDBMS] = bankLedger

func setupMySQL(t *testing.T) Config {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("bank"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	return Config{Dialect: MySQL, DSN: dsn, MaxIdleTime: defaultMaxIdleTime}
}

func TestClientCreateTablesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := setupMySQL(t)
	ctx := context.Background()

	client, err := Open[bankDBMS](ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, MySQL, client.Dialect())

	// The ledger references accounts, so accounts must be created first.
	require.NoError(t, client.CreateTables(ctx, bankLedger))

	var count int
	err = client.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'bank' AND table_name IN ('accounts', 'ledger')").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, client.Exec(ctx, "INSERT INTO bank.accounts (id, owner) VALUES (?, ?)", 1, "alice"))
	require.NoError(t, client.Exec(ctx, "INSERT INTO bank.ledger (account_id, amount) VALUES (?, ?)", 1, "10.50"))

	rows, err := client.Query(ctx, "SELECT amount FROM bank.ledger WHERE account_id = ?", 1)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var amount string
	require.NoError(t, rows.Scan(&amount))
	assert.Equal(t, "10.50", amount)
	require.NoError(t, rows.Err())

	err = client.CreateTables(ctx, bankAccounts)
	assert.ErrorIs(t, err, schema.ErrQuery, "creating an existing table fails")
}

func TestOpenInvalidDSN(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	_, err := Open[NullDBMS](context.Background(), Config{Dialect: MySQL, DSN: "invalid:user@tcp(127.0.0.1:1)/nope"}, nil)
	assert.ErrorIs(t, err, schema.ErrConnection)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open[NullDBMS](context.Background(), Config{Dialect: Postgres}, nil)
	assert.Error(t, err)
}

func TestNullDBMS(t *testing.T) {
	var null NullDBMS
	assert.Empty(t, null.AllTables())
	assert.Empty(t, null.DependentTables())
	assert.NoError(t, null.CreateTable(context.Background(), nil))
	assert.Equal(t, NullDBMS{}, null.FromTableName("x"))
}
