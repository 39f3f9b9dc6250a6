package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dt(d DataType) *DataType { return &d }

func TestAlignedDataType(t *testing.T) {
	cases := []struct {
		name    string
		element ElementType
		data    *DataType
		want    bool
	}{
		{"action carries no data", ElementAction, nil, true},
		{"action rejects data", ElementAction, dt(DataText), false},
		{"select needs singleselect", ElementSelect, dt(DataSingleSelect), true},
		{"select rejects text", ElementSelect, dt(DataText), false},
		{"select rejects nil", ElementSelect, nil, false},
		{"multiselect needs multiselect", ElementMultiSelect, dt(DataMultiSelect), true},
		{"multiselect rejects singleselect", ElementMultiSelect, dt(DataSingleSelect), false},
		{"text takes any valid data", ElementText, dt(DataNumber), true},
		{"text rejects nil", ElementText, nil, false},
		{"text rejects unknown data", ElementText, dt(DataType("BLOB")), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AlignedDataType(tc.element, tc.data))
		})
	}
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, SourceMarketplace.Valid())
	assert.False(t, SourceType("VENDOR").Valid())
	assert.True(t, DataDatetime.Valid())
	assert.False(t, DataType("").Valid())
	assert.True(t, ElementTextarea.Valid())
	assert.False(t, ElementType("RADIO").Valid())
}

func TestPublishAndArchiveStamps(t *testing.T) {
	now := time.Now().UTC()
	var published, archived bool
	var publishedAt, archivedAt *time.Time

	Publish(now, &published, &publishedAt)
	assert.True(t, published)
	require.NotNil(t, publishedAt)
	assert.Equal(t, now, *publishedAt)

	Archive(now, &archived, &archivedAt)
	assert.True(t, archived)
	require.NotNil(t, archivedAt)
	assert.Equal(t, now, *archivedAt)

	// flag and stamp always move together
	later := now.Add(time.Hour)
	Publish(later, &published, &publishedAt)
	assert.Equal(t, later, *publishedAt)
}
