package remote

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":" x1 ","b":1234,"c":null}`), &v))
	assert.Equal(t, FlexString("x1"), v.A)
	assert.Equal(t, FlexString("1234"), v.B)
	assert.Equal(t, FlexString(""), v.C)
}

func TestFlexTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2026-03-01T10:00:00Z"`, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{`"2026-03-01T12:00:00+02:00"`, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{`"2026-03-01"`, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{`"2026-03-01 10:00:00"`, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{`1772359200`, time.Unix(1772359200, 0).UTC()},
		{`1772359200000`, time.UnixMilli(1772359200000).UTC()},
		{`null`, time.Time{}},
		{`""`, time.Time{}},
	}
	for _, tt := range tests {
		var ft FlexTime
		require.NoError(t, json.Unmarshal([]byte(tt.in), &ft), tt.in)
		assert.True(t, tt.want.Equal(ft.Time), "%s: got %v", tt.in, ft.Time)
	}
}

func TestFlexTime_Invalid(t *testing.T) {
	var ft FlexTime
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ft))
}

func TestFlexTime_Ptr(t *testing.T) {
	assert.Nil(t, FlexTime{}.Ptr())
	now := time.Now().UTC()
	p := FlexTime{Time: now}.Ptr()
	require.NotNil(t, p)
	assert.True(t, now.Equal(*p))
}

func TestFirst(t *testing.T) {
	assert.Equal(t, "b", First("", "  ", "b", "c"))
	assert.Equal(t, "", First())
	ts := FlexTime{Time: time.Unix(10, 0)}
	assert.Equal(t, ts, FirstTime(FlexTime{}, ts))
	assert.True(t, FirstTime().IsZero())
}
