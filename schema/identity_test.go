package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name      string
		segments  []string
		typeName  string
		database  string
		tableName string
		fullName  string
	}{
		{
			name:      "two segments",
			segments:  []string{"Ethereum", "Blocks"},
			typeName:  "EthereumBlocks",
			database:  "ethereum",
			tableName: "blocks",
			fullName:  "ethereum.blocks",
		},
		{
			name:      "underscored table",
			segments:  []string{"Ethereum", "Blocks_Local"},
			typeName:  "EthereumBlocks_Local",
			database:  "ethereum",
			tableName: "blocks_local",
			fullName:  "ethereum.blocks_local",
		},
		{
			name:      "sub database",
			segments:  []string{"Database1", "Sub_Db0", "Table0_3"},
			typeName:  "Database1Sub_Db0Table0_3",
			database:  "database1",
			tableName: "`sub_db0.table0_3`",
			fullName:  "database1.`sub_db0.table0_3`",
		},
		{
			name:      "two sub databases",
			segments:  []string{"Db", "A", "B", "T"},
			typeName:  "DbABT",
			database:  "db",
			tableName: "`a.b.t`",
			fullName:  "db.`a.b.t`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewIdentity(tt.segments...)
			require.NoError(t, err)
			assert.Equal(t, tt.typeName, id.TypeName())
			assert.Equal(t, tt.database, id.DatabaseName())
			assert.Equal(t, tt.tableName, id.TableName())
			assert.Equal(t, tt.fullName, id.FullName())
			assert.Equal(t, tt.segments, id.Segments())
		})
	}
}

func TestIdentityErrors(t *testing.T) {
	_, err := NewIdentity("Ethereum")
	assert.ErrorIs(t, err, ErrShortPath)

	_, err = NewIdentity()
	assert.ErrorIs(t, err, ErrShortPath)

	_, err = NewIdentity("Ethereum", "1blocks")
	assert.ErrorIs(t, err, ErrInvalidSegment)

	_, err = NewIdentity("Ethereum", "")
	assert.ErrorIs(t, err, ErrInvalidSegment)

	assert.Panics(t, func() { MustIdentity("only") })
}

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity("Database1.Sub_Db0.Table0_3")
	require.NoError(t, err)
	assert.Equal(t, "Database1.Sub_Db0.Table0_3", id.Dotted())
	assert.Equal(t, "database1.`sub_db0.table0_3`", id.String())

	_, err = ParseIdentity("Blocks")
	assert.ErrorIs(t, err, ErrShortPath)
}

func TestIdentitySegmentsCopy(t *testing.T) {
	in := []string{"Ethereum", "Blocks"}
	id := MustIdentity(in...)
	in[1] = "Changed"

	segs := id.Segments()
	segs[0] = "Other"

	assert.Equal(t, "EthereumBlocks", id.TypeName())
}

func TestIdentityZero(t *testing.T) {
	var id Identity
	assert.True(t, id.IsZero())
	assert.Equal(t, "", id.DatabaseName())
	assert.Equal(t, "", id.TableName())
}
