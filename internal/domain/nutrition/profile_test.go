package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr error
	}{
		{name: "valid", mutate: func(p *Profile) {}},
		{name: "missing user", mutate: func(p *Profile) { p.UserID = "" }, wantErr: ErrInvalidProfile},
		{name: "weight out of range", mutate: func(p *Profile) { p.WeightKg = 12 }, wantErr: ErrInvalidProfile},
		{name: "too many meals", mutate: func(p *Profile) { p.MealsPerDay = 5 }, wantErr: ErrInvalidProfile},
		{name: "bad unit system", mutate: func(p *Profile) { p.UnitSystem = "nautical" }, wantErr: ErrInvalidProfile},
		{name: "unknown preference", mutate: func(p *Profile) { p.DietaryPreference = "breatharian" }, wantErr: ErrUnknownPreference},
		{name: "preference spelled loosely", mutate: func(p *Profile) { p.DietaryPreference = "High-Protein" }},
		{name: "empty override", mutate: func(p *Profile) { p.MacroOverride = &MacroSplit{} }, wantErr: ErrInvalidProfile},
		{name: "override ratio above one", mutate: func(p *Profile) { p.MacroOverride = &MacroSplit{Protein: 1.5} }, wantErr: ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseProfile()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProfile_Defaults(t *testing.T) {
	p := baseProfile()
	assert.Equal(t, UnitsImperial, p.Units())
	assert.True(t, p.HasBodyMetrics())

	p.UnitSystem = UnitsMetric
	p.Sex = ""
	assert.Equal(t, UnitsMetric, p.Units())
	assert.False(t, p.HasBodyMetrics())

	p.DietaryPreference = " Low Carb "
	assert.Equal(t, "low_carb", p.PresetKey())
}

func TestActivityLevel_Multiplier(t *testing.T) {
	assert.Equal(t, 1.55, ActivityModerate.Multiplier())
	assert.Equal(t, 1.2, ActivityLevel("couch").Multiplier())
}

func TestPresets(t *testing.T) {
	assert.Len(t, PresetKeys(), 13)

	for _, key := range PresetKeys() {
		preset, ok := LookupPreset(key)
		if !assert.True(t, ok, key) {
			continue
		}
		assert.Equal(t, key, preset.Key)
		assert.InDelta(t, 1.0, preset.Split.Sum(), 1e-9, key)
		assert.LessOrEqual(t, preset.ProteinPerKg.Min, preset.ProteinPerKg.Max, key)
	}

	keto, _ := LookupPreset("ketogenic")
	assert.True(t, keto.StrictLowCarb)
	assert.Contains(t, keto.Forbidden, "bread")
}
