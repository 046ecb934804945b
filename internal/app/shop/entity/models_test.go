package entity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func parseSchema(t *testing.T, model interface{}) *schema.Schema {
	t.Helper()

	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	return s
}

// Ссылка отзыва на заказ должна быть настоящей связью belongs-to:
// тег constraint на голой колонке GORM молча игнорирует, и без связи
// миграция не создаст foreign key с ON DELETE SET NULL
func TestReview_OrderReferenceNulledOnOrderDelete(t *testing.T) {
	s := parseSchema(t, &Review{})

	rel, ok := s.Relationships.Relations["Order"]
	require.True(t, ok, "reviews must reference orders through a parsed relationship")
	assert.Equal(t, schema.BelongsTo, rel.Type)

	constraint := rel.ParseConstraint()
	require.NotNil(t, constraint, "relationship must produce a migratable foreign key")
	assert.Equal(t, "SET NULL", constraint.OnDelete)
}

func TestOrder_ItemsCascadeOnOrderDelete(t *testing.T) {
	s := parseSchema(t, &Order{})

	rel, ok := s.Relationships.Relations["Items"]
	require.True(t, ok)

	constraint := rel.ParseConstraint()
	require.NotNil(t, constraint)
	assert.Equal(t, "CASCADE", constraint.OnDelete)
}
