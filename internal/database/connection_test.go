package database

import (
	"testing"

	"github.com/localnerve/enrol-pipeline/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
)

func TestDialectorNames(t *testing.T) {
	cases := map[string]string{
		"mysql":       "mysql",
		"mariadb":     "mysql",
		"postgres":    "postgres",
		"sqlite":      "sqlite",
		"sqlite-pure": "sqlite",
		"sqlserver":   "sqlserver",
	}
	for dbType, name := range cases {
		d, err := Dialector(&config.Config{DBType: dbType, DBDatabase: "x"})
		require.NoError(t, err, dbType)
		assert.Equal(t, name, d.Name(), dbType)
	}

	_, err := Dialector(&config.Config{DBType: "oracle"})
	assert.EqualError(t, err, "unsupported database type: oracle")
}

func TestMySQLCountsMatchedRows(t *testing.T) {
	d, err := Dialector(&config.Config{DBType: "mariadb", DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBDatabase: "enrol"})
	require.NoError(t, err)

	dialector, ok := d.(*mysql.Dialector)
	require.True(t, ok)
	assert.Contains(t, dialector.DSN, "clientFoundRows=true")
	assert.Contains(t, dialector.DSN, "u:p@tcp(db:3306)/enrol?")
}

func TestConnectAndMigratePureSQLite(t *testing.T) {
	cfg := &config.Config{
		DBType:            "sqlite-pure",
		DBDatabase:        "file:connect_test?mode=memory&cache=shared",
		DBConnectionLimit: 1,
		Environment:       "production",
	}

	db, err := Connect(cfg, nil)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))
	for _, table := range []string{"workspaces", "forms", "pipeline_stages", "submissions", "stage_history", "activities", "tags", "submission_tags"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
