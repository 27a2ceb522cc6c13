package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewErrorClassifier()

	cases := []struct {
		name string
		err  error
		want ErrorType
	}{
		{
			"Unique index violation by SQLSTATE",
			errors.New(`ERROR: duplicate key value violates unique constraint "idx_transactions_reference" (SQLSTATE 23505)`),
			DuplicateKeyError,
		},
		{
			"Deadlock",
			errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"),
			LockError,
		},
		{
			"Serialization failure",
			errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)"),
			LockError,
		},
		{
			"Connection reset mid-query",
			errors.New("read tcp 10.0.0.5:43210->10.0.0.9:5432: connection reset by peer"),
			TransientError,
		},
		{
			"Server going down",
			errors.New("FATAL: terminating connection due to administrator command (SQLSTATE 57P01)"),
			TransientError,
		},
		{
			"Dial failure",
			errors.New("failed to connect to `host=localhost user=faxon database=faxon_dev`: dial tcp 127.0.0.1:5432: connect: connection refused"),
			TransientError,
		},
		{
			"Not-null violation",
			errors.New(`ERROR: null value in column "reference" violates not-null constraint (SQLSTATE 23502)`),
			ConstraintError,
		},
		{
			"Unclassified error",
			errors.New("some application error"),
			ErrorType(""),
		},
		{
			"Nil error",
			nil,
			ErrorType(""),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.err))
		})
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	c := NewErrorClassifier()

	assert.True(t, c.IsDuplicateKeyError(
		errors.New(`duplicate key value violates unique constraint "idx_transactions_reference"`)))
	assert.False(t, c.IsDuplicateKeyError(
		errors.New("ERROR: deadlock detected (SQLSTATE 40P01)")),
		"a lock error must never read as a duplicate reference")
	assert.False(t, c.IsDuplicateKeyError(nil))
}
