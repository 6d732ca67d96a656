package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const orgUnitObject = `{
	"id": "4F79E266-4080-4300-A5D1-B1E1E13C0DA4",
	"registreringer": [{
		"attributter": {"organisationenhedegenskaber": [{"brugervendtnoegle": "hum", "virkning": {"from": "2016-01-01", "to": "infinity"}}]},
		"relationer": {
			"overordnet": [{"uuid": "2874e1dc-85e6-4269-823a-e1125484dfd3", "virkning": {"from": "2016-01-01", "to": "infinity"}}],
			"tilknyttedeenheder": [{"uuid": "a1"}, {"id": "a2"}]
		},
		"tilstande": {"organisationenhedgyldighed": [{"gyldighed": "Aktiv", "aktiv": true}]}
	}]
}`

func TestKeyForPath(t *testing.T) {
	require.Equal(t, "b", KeyForPath(KeyPath("relationer", "b", "uuid")))
	require.Equal(t, "b", KeyForPath(KeyPath("relationer", "b", "id")))
	require.Equal(t, "uuid", KeyForPath(KeyPath("id")))
	require.Equal(t, "c", KeyForPath(KeyPath("a", "b", "c")))
	require.Equal(t, "uuid", KeyForPath(KeyPath("a", "b", "uuid")))
	require.Equal(t, "", KeyForPath(nil))

	withIndexes := Path{
		KeySegment("registreringer"), IndexSegment(0),
		KeySegment("relationer"), KeySegment("overordnet"), IndexSegment(3),
		KeySegment("uuid"),
	}
	require.Equal(t, "overordnet", KeyForPath(withIndexes))
}

func TestTraverse_DepthFirstInInsertionOrder(t *testing.T) {
	doc, err := Parse([]byte(`{"z": 1, "a": [true, {"b": "x"}], "m": null}`))
	require.NoError(t, err)

	var paths []string
	var values []string
	for p, v := range Traverse(doc) {
		paths = append(paths, p.String())
		values = append(values, v.String())
	}
	require.Equal(t, []string{"z", "a/[0]", "a/[1]/b", "m"}, paths)
	require.Equal(t, []string{"1", "True", "x", ""}, values)
}

func TestTraverse_IsRestartableAndStopsEarly(t *testing.T) {
	doc, err := Parse([]byte(orgUnitObject))
	require.NoError(t, err)

	count := func() int {
		n := 0
		for range Traverse(doc) {
			n++
		}
		return n
	}
	first := count()
	require.Positive(t, first)
	require.Equal(t, first, count())

	seen := 0
	for range Traverse(doc) {
		seen++
		if seen == 2 {
			break
		}
	}
	require.Equal(t, 2, seen)
}

func TestKeyValueItems_RelationNamesAndIDs(t *testing.T) {
	doc, err := Parse([]byte(orgUnitObject))
	require.NoError(t, err)

	items := KeyValueItems(doc, NewValueSet("uuid", "overordnet", "tilknyttedeenheder", "aktiv"))
	got := make([][2]string, 0, len(items))
	for _, kv := range items {
		got = append(got, [2]string{kv.Key, kv.Value.String()})
	}
	require.Equal(t, [][2]string{
		{"uuid", "4F79E266-4080-4300-A5D1-B1E1E13C0DA4"},
		{"overordnet", "2874e1dc-85e6-4269-823a-e1125484dfd3"},
		{"tilknyttedeenheder", "a1"},
		{"tilknyttedeenheder", "a2"},
		{"aktiv", "True"},
	}, got)
}

func TestGroupParams_UnionsPerKey(t *testing.T) {
	keys := []string{"a", "b"}
	grouped := GroupParams(keys, []ParamTuple{
		{NewValueSet("1"), NewValueSet("x")},
		{NewValueSet("2", "1"), NewValueSet()},
		{NewValueSet("3"), NewValueSet("y")},
	})
	require.Equal(t, []string{"1", "2", "3"}, grouped["a"].Sorted())
	require.Equal(t, []string{"x", "y"}, grouped["b"].Sorted())
}

func TestParse_RejectsTrailingData(t *testing.T) {
	_, err := Parse([]byte(`{"a": 1} {"b": 2}`))
	require.Error(t, err)
	_, err = Parse([]byte(`{"a": `))
	require.Error(t, err)
}

func TestFromAny_SortsMapKeys(t *testing.T) {
	doc := FromAny(map[string]any{"b": 2.0, "a": []any{"x", false}})
	m, ok := doc.(Mapping)
	require.True(t, ok)
	require.Equal(t, "a", m[0].Key)
	require.Equal(t, "b", m[1].Key)

	v, ok := m.Get("b")
	require.True(t, ok)
	require.Equal(t, "2", v.(Scalar).String())
}

func TestValueSet_HasFold(t *testing.T) {
	s := NewValueSet("4f79e266-4080-4300-a5d1-b1e1e13c0da4")
	require.True(t, s.HasFold("4F79E266-4080-4300-A5D1-B1E1E13C0DA4"))
	require.False(t, s.Has("4F79E266-4080-4300-A5D1-B1E1E13C0DA4"))
	require.False(t, s.HasFold("other"))
}
