package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "segments", []string{"tlid"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"segments"}, []string{"tlid", "full_name"}).
		WillReturnResult(2)

	n, err := CopyFrom(context.Background(), mock, "segments", []string{"tlid", "full_name"},
		[][]any{{"1001", "Main St"}, {"1002", "Elm St"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"segments"}, []string{"tlid"}).
		WillReturnError(assert.AnError)

	_, err = CopyFrom(context.Background(), mock, "segments", []string{"tlid"},
		[][]any{{"1001"}})
	assert.Error(t, err)
}
