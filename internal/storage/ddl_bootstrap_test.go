package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"csvload/internal/schema"
)

type fakeDialect struct{}

func (fakeDialect) Name() string                 { return "fake" }
func (fakeDialect) QuoteIdent(id string) string  { return "<" + id + ">" }
func (fakeDialect) MapType(t schema.Type) string { return strings.ToUpper(t.String()) }

// fakeRepo records executed statements and tracks a set of tables.
type fakeRepo struct {
	tables map[string]bool
	execs  []string
}

func (r *fakeRepo) CopyCSV(context.Context, string, []string, []byte) (int64, error) {
	return 0, nil
}

func (r *fakeRepo) Exec(_ context.Context, sql string) error {
	r.execs = append(r.execs, sql)
	switch {
	case strings.HasPrefix(sql, "DROP TABLE IF EXISTS <"):
		delete(r.tables, strings.TrimSuffix(strings.TrimPrefix(sql, "DROP TABLE IF EXISTS <"), ">"))
	case strings.HasPrefix(sql, "CREATE TABLE <"):
		name := strings.TrimPrefix(sql, "CREATE TABLE <")
		r.tables[name[:strings.IndexByte(name, '>')]] = true
	}
	return nil
}

func (r *fakeRepo) TableExists(_ context.Context, table string) (bool, error) {
	return r.tables[table], nil
}

func (r *fakeRepo) Close() {}

func init() { RegisterDDL("fake", fakeDialect{}) }

var usersTable = schema.Table{
	Name:    "users",
	Columns: []schema.Profile{{Name: "id", Type: schema.SmallInt}},
}

func TestPrepareTable(t *testing.T) {
	t.Parallel()

	t.Run("existing table is left alone", func(t *testing.T) {
		repo := &fakeRepo{tables: map[string]bool{"users": true}}
		prep, err := PrepareTable(context.Background(), "fake", repo, usersTable, TableOptions{Create: true})
		require.NoError(t, err)
		require.Equal(t, TablePrep{}, prep)
		require.Empty(t, repo.execs)
	})

	t.Run("missing without create", func(t *testing.T) {
		repo := &fakeRepo{tables: map[string]bool{}}
		_, err := PrepareTable(context.Background(), "fake", repo, usersTable, TableOptions{})
		require.ErrorIs(t, err, ErrTableNotFound)
	})

	t.Run("missing with create", func(t *testing.T) {
		repo := &fakeRepo{tables: map[string]bool{}}
		prep, err := PrepareTable(context.Background(), "fake", repo, usersTable, TableOptions{Create: true})
		require.NoError(t, err)
		require.True(t, prep.Created)
		require.Equal(t, []string{"CREATE TABLE <users> (\n  <id> SMALLINT NOT NULL\n)"}, repo.execs)
	})

	t.Run("drop then create", func(t *testing.T) {
		repo := &fakeRepo{tables: map[string]bool{"users": true}}
		prep, err := PrepareTable(context.Background(), "fake", repo, usersTable, TableOptions{Drop: true, Create: true})
		require.NoError(t, err)
		require.Equal(t, TablePrep{Dropped: true, Created: true}, prep)
		require.Len(t, repo.execs, 2)
		require.Equal(t, "DROP TABLE IF EXISTS <users>", repo.execs[0])
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := PrepareTable(context.Background(), "nope", &fakeRepo{}, usersTable, TableOptions{})
		require.Error(t, err)
	})
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	sql, err := CreateTableSQL("fake", usersTable)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sql, "CREATE TABLE <users>"))
}

func TestNew_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "does-not-exist"})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrTableNotFound))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	Register("fake-factory", func(context.Context, Config) (Repository, error) {
		return &fakeRepo{}, nil
	})
	repo, err := New(context.Background(), Config{Kind: "fake-factory"})
	require.NoError(t, err)
	require.NotNil(t, repo)
	require.Contains(t, Kinds(), "fake-factory")
}
