package persistence

import (
	"net/url"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkhub/infrastructure/configuration"
)

func TestMSSQLDSN(t *testing.T) {
	tests := []struct {
		name      string
		cfg       configuration.Db
		wantHost  string
		wantUser  string
		wantTrust string
	}{
		{
			name:     "azure",
			cfg:      configuration.Db{Name: "linkhub", Host: "srv.database.windows.net", Port: "1433", User: "app", Password: "p@ss"},
			wantHost: "srv.database.windows.net:1433",
			wantUser: "app",
		},
		{
			name:      "local container defaults the port",
			cfg:       configuration.Db{Name: "linkhub", Host: "localhost", User: "sa"},
			wantHost:  "localhost:1433",
			wantUser:  "sa",
			wantTrust: "true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(mssqlDSN(tt.cfg))
			require.NoError(t, err)
			assert.Equal(t, "sqlserver", u.Scheme)
			assert.Equal(t, tt.wantHost, u.Host)
			assert.Equal(t, tt.wantUser, u.User.Username())
			assert.Equal(t, "linkhub", u.Query().Get("database"))
			assert.Equal(t, "true", u.Query().Get("encrypt"))
			assert.Equal(t, tt.wantTrust, u.Query().Get("TrustServerCertificate"))
		})
	}
}

func TestConfigurePool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	configurePool(db)

	assert.Equal(t, maxOpenConns, db.Stats().MaxOpenConnections)
	assert.GreaterOrEqual(t, connMaxIdleTime.Minutes(), 1.0, "idle connections must survive between job ticks")
}

func TestEnsureSchema_CreatesTablesOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS posts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS ix_posts_status_scheduled`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS ix_posts_user_created`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS social_accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_social_accounts_user_platform`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaMSSQL_CreatesTablesOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`OBJECT_ID\(N'dbo.posts'\)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`OBJECT_ID\(N'dbo.social_accounts'\)`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchemaMSSQL(db))
	require.NoError(t, mock.ExpectationsWereMet())
}
