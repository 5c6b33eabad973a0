package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	id      string
	state   int
	created time.Time
}

func rowField(r row, field string) (any, bool) {
	switch field {
	case "id":
		return r.id, true
	case "state":
		return r.state, true
	case "createdAt":
		return r.created, true
	}
	return nil, false
}

func TestApply(t *testing.T) {
	now := time.Now()
	rows := []row{
		{id: "a", state: 200, created: now.Add(2 * time.Second)},
		{id: "b", state: 400, created: now},
		{id: "c", state: 200, created: now.Add(time.Second)},
	}

	t.Run("equality and sort", func(t *testing.T) {
		out, err := Apply(rows, Spec{Filters: []Criterion{{Field: "state", Operator: OpEqual, Value: 200}}, SortBy: "createdAt"}, rowField)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "c", out[0].id)
		assert.Equal(t, "a", out[1].id)
	})

	t.Run("membership with paging", func(t *testing.T) {
		out, err := Apply(rows, Spec{}.AndIn("id", "a", "b", "c"), rowField)
		require.NoError(t, err)
		assert.Len(t, out, 3)

		paged, err := Apply(rows, Spec{SortBy: "id", Offset: 1, Limit: 1}, rowField)
		require.NoError(t, err)
		require.Len(t, paged, 1)
		assert.Equal(t, "b", paged[0].id)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Apply(rows, Where("nope", 1), rowField)
		assert.Error(t, err)
	})
}

func TestSQL(t *testing.T) {
	type state string
	cols := Columns{"participantContextId": "participant_context_id", "state": "state", "id": "id"}

	clause, args, err := SQL(Where("participantContextId", "p1").AndIn("id", "x", "y").And("state", state("ISSUED")), cols, 0)
	require.NoError(t, err)
	assert.Equal(t, " WHERE participant_context_id = $1 AND id IN ($2, $3) AND state = $4", clause)
	assert.Equal(t, []any{"p1", "x", "y", "ISSUED"}, args)

	clause, args, err = SQL(Spec{SortBy: "id", SortDesc: true, Limit: 10}, cols, 2)
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY id DESC LIMIT $3", clause)
	assert.Equal(t, []any{10}, args)

	_, _, err = SQL(Where("unknown", 1), cols, 0)
	assert.Error(t, err)
}
