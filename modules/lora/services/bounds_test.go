package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

var (
	nameField     = registration.Path(registration.Attributes, "organisationenhedegenskaber")
	parentField   = registration.Path(registration.Relations, "overordnet")
	addressField  = registration.Path(registration.Relations, "adresser")
	validityField = registration.Path(registration.States, "organisationenhedgyldighed")
)

func originalUnit() *registration.Registration {
	reg := registration.New()
	reg.Note = "original"
	reg.SetField(nameField, []registration.Effect{named("X", year(2010), year(2015))})
	reg.SetField(parentField, []registration.Effect{named("P", year(2010), year(2015))})
	reg.SetField(validityField, []registration.Effect{state(StateActive, year(2010), year(2015))})
	return reg
}

func TestEnsureBounds_ContainedRangeOmitsField(t *testing.T) {
	specs := []FieldSpec{{Path: nameField, Kind: ZeroToOne}}

	got, err := EnsureBounds(year(2011), year(2014), specs, originalUnit(), nil)
	require.NoError(t, err)

	_, ok := got.Field(nameField)
	require.False(t, ok)
}

func TestEnsureBounds_ShrinkOnlySynthesizesNothing(t *testing.T) {
	specs := []FieldSpec{
		{Path: nameField, Kind: ZeroToOne},
		{Path: parentField, Kind: ZeroToMany},
	}

	got, err := EnsureBounds(year(2012), year(2015), specs, originalUnit(), nil)
	require.NoError(t, err)
	require.Empty(t, got.FieldPaths())
}

func TestEnsureBounds_ExpandBothSidesCopiesNearestEntry(t *testing.T) {
	specs := []FieldSpec{{Path: nameField, Kind: ZeroToOne}}

	got, err := EnsureBounds(year(2008), pinf, specs, originalUnit(), nil)
	require.NoError(t, err)

	effects, ok := got.Field(nameField)
	require.True(t, ok)
	require.Equal(t, []span{
		{"X", year(2008), year(2010)},
		{"X", year(2010), year(2015)},
		{"X", year(2015), pinf},
	}, spans(effects))
}

// Growing one side while shrinking the other clips ZeroToOne fields to the
// requested range; ZeroToMany fields keep their full history.
func TestEnsureBounds_OnlyZeroToOneClipsOnMixedChange(t *testing.T) {
	specs := []FieldSpec{
		{Path: nameField, Kind: ZeroToOne},
		{Path: parentField, Kind: ZeroToMany},
	}

	got, err := EnsureBounds(year(2012), year(2018), specs, originalUnit(), nil)
	require.NoError(t, err)

	names, _ := got.Field(nameField)
	require.Equal(t, []span{
		{"X", year(2012), year(2015)},
		{"X", year(2015), year(2018)},
	}, spans(names))

	parents, _ := got.Field(parentField)
	require.Equal(t, []span{
		{"P", year(2010), year(2015)},
		{"P", year(2015), year(2018)},
	}, spans(parents))
}

func TestEnsureBounds_AdaptedCallsDeriverForExposedRanges(t *testing.T) {
	var asked []virkning.Interval
	specs := []FieldSpec{{
		Path: parentField,
		Kind: AdaptedZeroToMany,
		Value: func(window virkning.Interval) ([]map[string]any, error) {
			asked = append(asked, window)
			return []map[string]any{{"name": "derived"}}, nil
		},
	}}

	got, err := EnsureBounds(year(2005), year(2020), specs, originalUnit(), nil)
	require.NoError(t, err)

	require.Equal(t, []virkning.Interval{
		virkning.New(year(2005), year(2010)),
		virkning.New(year(2015), year(2020)),
	}, asked)
	parents, _ := got.Field(parentField)
	require.Equal(t, []span{
		{"derived", year(2005), year(2010)},
		{"P", year(2010), year(2015)},
		{"derived", year(2015), year(2020)},
	}, spans(parents))
}

func TestEnsureBounds_AdaptedKeepsEveryDerivedValue(t *testing.T) {
	specs := []FieldSpec{{
		Path:  parentField,
		Kind:  AdaptedZeroToMany,
		Value: Constant(map[string]any{"name": "d1"}, map[string]any{"name": "d2"}),
	}}

	got, err := EnsureBounds(year(2005), year(2015), specs, originalUnit(), nil)
	require.NoError(t, err)

	parents, _ := got.Field(parentField)
	require.Equal(t, []span{
		{"d1", year(2005), year(2010)},
		{"d2", year(2005), year(2010)},
		{"P", year(2010), year(2015)},
	}, spans(parents))
}

func TestEnsureBounds_AdaptedWithoutDeriverFails(t *testing.T) {
	specs := []FieldSpec{{Path: parentField, Kind: AdaptedZeroToMany}}

	_, err := EnsureBounds(year(2005), year(2015), specs, originalUnit(), nil)
	require.Error(t, err)
}

func TestEnsureBounds_DeriverErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	specs := []FieldSpec{{
		Path:  parentField,
		Kind:  AdaptedZeroToMany,
		Value: func(virkning.Interval) ([]map[string]any, error) { return nil, boom },
	}}

	_, err := EnsureBounds(year(2005), year(2015), specs, originalUnit(), nil)
	require.ErrorIs(t, err, boom)
}

func TestEnsureBounds_SkipsAbsentFields(t *testing.T) {
	specs := []FieldSpec{{Path: addressField, Kind: ZeroToMany}}

	got, err := EnsureBounds(year(2000), pinf, specs, originalUnit(), nil)
	require.NoError(t, err)
	require.Empty(t, got.FieldPaths())
}

func TestEnsureBounds_RejectsMalformedRange(t *testing.T) {
	_, err := EnsureBounds(year(2015), year(2010), nil, originalUnit(), nil)
	require.True(t, HasCode(err, CodeEndBeforeStart))
}

func TestEnsureBounds_KeepsPayloadMetadata(t *testing.T) {
	payload := registration.New()
	payload.Note = "edit"
	specs := []FieldSpec{{Path: nameField, Kind: ZeroToOne}}

	got, err := EnsureBounds(year(2008), year(2015), specs, originalUnit(), payload)
	require.NoError(t, err)
	require.Equal(t, "edit", got.Note)
	require.Empty(t, payload.FieldPaths())
}

func TestInactivateOldInterval_ShrinkBothSides(t *testing.T) {
	payload := registration.New()
	payload.Note = "terminate"

	got := InactivateOldInterval(year(2010), year(2020), year(2012), year(2018), payload, validityField)

	effects, ok := got.Field(validityField)
	require.True(t, ok)
	require.Equal(t, []span{
		{StateInactive, year(2010), year(2012)},
		{StateInactive, year(2018), year(2020)},
	}, spans(effects))
	for _, e := range effects {
		require.Equal(t, "terminate", e.Virkning.Note)
	}
	_, ok = payload.Field(validityField)
	require.False(t, ok)
}

func TestInactivateOldInterval_ShrinkEndOnly(t *testing.T) {
	got := InactivateOldInterval(year(2010), pinf, year(2010), year(2018), registration.New(), validityField)

	effects, _ := got.Field(validityField)
	require.Equal(t, []span{{StateInactive, year(2018), pinf}}, spans(effects))
}

func TestInactivateOldInterval_ExpandReturnsPayloadUnmodified(t *testing.T) {
	payload := registration.New()

	require.Same(t, payload, InactivateOldInterval(year(2010), year(2020), year(2005), year(2025), payload, validityField))
	require.Same(t, payload, InactivateOldInterval(year(2010), year(2020), year(2010), year(2020), payload, validityField))
}

func TestUpdatePayload_ZeroToOneMergesOverOriginal(t *testing.T) {
	specs := []FieldSpec{{Path: nameField, Kind: ZeroToOne, Value: Constant(map[string]any{"name": "Y"})}}
	original := registration.New()
	original.SetField(nameField, []registration.Effect{named("X", year(2010), pinf)})

	got, err := UpdatePayload(year(2015), pinf, specs, original, nil)
	require.NoError(t, err)

	effects, _ := got.Field(nameField)
	require.Equal(t, []span{
		{"X", year(2010), year(2015)},
		{"Y", year(2015), pinf},
	}, spans(effects))
}

func TestUpdatePayload_ZeroToManyAppendsToQueued(t *testing.T) {
	specs := []FieldSpec{{Path: addressField, Kind: ZeroToMany, Value: Constant(map[string]any{"name": "new"})}}
	original := registration.New()
	original.SetField(addressField, []registration.Effect{named("old", year(2010), pinf)})
	payload := registration.New()
	payload.SetField(addressField, []registration.Effect{named("queued", year(2005), year(2010))})

	got, err := UpdatePayload(year(2015), pinf, specs, original, payload)
	require.NoError(t, err)

	effects, _ := got.Field(addressField)
	require.Equal(t, []span{
		{"queued", year(2005), year(2010)},
		{"new", year(2015), pinf},
	}, spans(effects))
}

func TestUpdatePayload_AdaptedKeepsEveryDerivedValue(t *testing.T) {
	specs := []FieldSpec{{
		Path:  addressField,
		Kind:  AdaptedZeroToMany,
		Value: Constant(map[string]any{"name": "u1"}, map[string]any{"name": "u2"}),
	}}
	original := registration.New()
	original.SetField(addressField, []registration.Effect{named("A", year(2010), pinf)})

	got, err := UpdatePayload(year(2016), pinf, specs, original, nil)
	require.NoError(t, err)

	effects, _ := got.Field(addressField)
	require.Equal(t, []span{
		{"A", year(2010), year(2016)},
		{"u1", year(2016), pinf},
		{"u2", year(2016), pinf},
	}, spans(effects))
}

func TestUpdatePayload_ZeroToManyAppendsEveryValue(t *testing.T) {
	specs := []FieldSpec{{
		Path:  addressField,
		Kind:  ZeroToMany,
		Value: Constant(map[string]any{"name": "v1"}, map[string]any{"name": "v2"}),
	}}

	got, err := UpdatePayload(year(2015), pinf, specs, registration.New(), nil)
	require.NoError(t, err)

	effects, _ := got.Field(addressField)
	require.Equal(t, []span{
		{"v1", year(2015), pinf},
		{"v2", year(2015), pinf},
	}, spans(effects))
}

func TestUpdatePayload_AbsentFieldGetsFreshList(t *testing.T) {
	specs := []FieldSpec{{Path: parentField, Kind: ZeroToOne, Value: Constant(map[string]any{"name": "P"})}}

	got, err := UpdatePayload(year(2015), year(2016), specs, registration.New(), nil)
	require.NoError(t, err)

	effects, _ := got.Field(parentField)
	require.Equal(t, []span{{"P", year(2015), year(2016)}}, spans(effects))
}

func TestUpdatePayload_PassesThroughUnnamedFields(t *testing.T) {
	payload := registration.New()
	payload.SetField(validityField, []registration.Effect{state(StateActive, year(2015), pinf)})
	specs := []FieldSpec{{Path: nameField, Kind: ZeroToOne, Value: Constant(map[string]any{"name": "Y"})}}

	got, err := UpdatePayload(year(2015), pinf, specs, originalUnit(), payload)
	require.NoError(t, err)

	effects, _ := got.Field(validityField)
	require.Equal(t, []span{{StateActive, year(2015), pinf}}, spans(effects))
}

func TestUpdatePayload_RejectsMalformedRangeBeforeDeriving(t *testing.T) {
	called := false
	specs := []FieldSpec{{
		Path: nameField,
		Kind: ZeroToOne,
		Value: func(virkning.Interval) ([]map[string]any, error) {
			called = true
			return nil, nil
		},
	}}

	_, err := UpdatePayload(year(2015), year(2015), specs, originalUnit(), nil)
	require.True(t, HasCode(err, CodeEndBeforeStart))
	require.False(t, called)
}

func TestWritePipeline_EnsureBoundsThenUpdate(t *testing.T) {
	original := originalUnit()
	specs := []FieldSpec{{Path: nameField, Kind: ZeroToOne}}

	payload, err := EnsureBounds(year(2010), year(2020), specs, original, nil)
	require.NoError(t, err)
	payload = InactivateOldInterval(year(2010), year(2015), year(2010), year(2020), payload, validityField)

	specs[0].Value = Constant(map[string]any{"name": "Z"})
	payload, err = UpdatePayload(year(2017), year(2020), specs, original, payload)
	require.NoError(t, err)

	effects, _ := payload.Field(nameField)
	require.Equal(t, []span{
		{"X", year(2010), year(2015)},
		{"X", year(2015), year(2017)},
		{"Z", year(2017), year(2020)},
	}, spans(effects))
	_, ok := payload.Field(validityField)
	require.False(t, ok)
}
