package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Detail: "Key (email) exists"})), ErrConflict)

	other := &pq.Error{Code: "23503"}
	assert.Same(t, other, mapError(other))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapError(plain))
}
