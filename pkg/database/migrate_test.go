package database

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(schema).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(schema).WillReturnError(errors.New("permission denied"))

	require.NoError(t, Migrate(context.Background(), mock))
	assert.ErrorContains(t, Migrate(context.Background(), mock), "apply schema: permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaDeclaresOverlapExclusion(t *testing.T) {
	assert.Contains(t, schema, "EXCLUDE USING gist")
	assert.Contains(t, schema, "ON DELETE CASCADE")
}
