package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// columnTypes returns the column type each dialect would create per field.
func columnTypes(t *testing.T, d gorm.Dialector, model any, fields ...string) map[string]string {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	out := map[string]string{}
	for _, name := range fields {
		f := s.LookUpField(name)
		require.NotNil(t, f, name)
		out[name] = d.DataTypeOf(f)
	}
	return out
}

func TestColumnTypes_FreeFormStringsAreUnbounded(t *testing.T) {
	for name, d := range map[string]gorm.Dialector{
		"postgres": postgres.New(postgres.Config{}),
		"mysql":    mysql.New(mysql.Config{}),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, map[string]string{
				"device_id": "varchar(191)",
				"status":    "text",
				"message":   "text",
			}, columnTypes(t, d, &Device{}, "device_id", "status", "message"))

			assert.Equal(t, map[string]string{
				"device_id": "varchar(191)",
				"status":    "text",
			}, columnTypes(t, d, &HistoryRecord{}, "device_id", "status"))

			assert.Equal(t, map[string]string{
				"status":      "text",
				"assigned_to": "text",
				"notes":       "text",
			}, columnTypes(t, d, &Ticket{}, "status", "assigned_to", "notes"))
		})
	}
}
