package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullRoundTrip(t *testing.T) {
	mass := 12.5
	unit := "m2"
	count := 3
	id := int64(9)

	assert.Equal(t, &mass, Float64Value(NullFloat64(&mass)))
	assert.Equal(t, &unit, StringValue(NullString(&unit)))
	assert.Equal(t, &count, IntValue(NullInt(&count)))
	assert.Equal(t, &id, Int64Value(NullInt64(&id)))

	assert.Nil(t, Float64Value(NullFloat64(nil)))
	assert.Nil(t, StringValue(NullString(nil)))
	assert.Nil(t, IntValue(NullInt(nil)))
	assert.Nil(t, Int64Value(NullInt64(nil)))
}

func TestInt64Ptr(t *testing.T) {
	assert.Nil(t, Int64Ptr(0))
	assert.Equal(t, int64(4), *Int64Ptr(4))
}
