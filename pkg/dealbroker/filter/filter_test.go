package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

func sampleDeals() []dal.Listing {
	return []dal.Listing{
		{ID: 1, Make: "Tesla", Model: "Model 3", Year: 2023, LeasePrice: 499, Term: 36, Tags: []string{"Electric", "Sedan", "Featured"}},
		{ID: 2, Make: "BMW", Model: "X5", Year: 2024, LeasePrice: 699, Term: 36, Tags: []string{"Luxury", "SUV", "Limited"}},
		{ID: 3, Make: "Honda", Model: "Accord Hybrid", Year: 2023, LeasePrice: 329, Term: 36, Savings: dal.Savings(3000), Tags: []string{"Hybrid", "Sedan", "Eco-friendly"}},
		{ID: 4, Make: "Mercedes-Benz", Model: "GLE", Year: 2024, LeasePrice: 799, Term: 36, Tags: []string{"Luxury", "SUV", "Premium"}},
		{ID: 5, Make: "Audi", Model: "Q7", Year: 2024, LeasePrice: 749, Term: 36, Tags: []string{"Luxury", "SUV", "Family"}},
		{ID: 6, Make: "Toyota", Model: "RAV4 Prime", Year: 2023, LeasePrice: 389, Term: 36},
	}
}

func ids(listings []dal.Listing) []int64 {
	out := make([]int64, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  []int64
	}{
		{
			name:  "OpenStateReturnsEverything",
			state: Open(),
			want:  []int64{1, 2, 3, 4, 5, 6},
		},
		{
			name:  "ExactMake",
			state: Open().WithMake(SpecificMake("BMW")),
			want:  []int64{2},
		},
		{
			name:  "MakeIsCaseSensitive",
			state: Open().WithMake(SpecificMake("bmw")),
			want:  []int64{},
		},
		{
			name:  "InclusivePriceBounds",
			state: Open().WithPrice(PriceRange{Low: 389, High: 699}),
			want:  []int64{1, 2, 6},
		},
		{
			name:  "TagsAreOrCombined",
			state: Open().WithTags("Electric", "Hybrid"),
			want:  []int64{1, 3},
		},
		{
			name:  "UnknownTagExcludesAll",
			state: Open().WithTags("Convertible"),
			want:  []int64{},
		},
		{
			name:  "UntaggedListingOnlyWithoutTagSelection",
			state: Open().WithMake(SpecificMake("Toyota")).WithTags("SUV"),
			want:  []int64{},
		},
		{
			name:  "AllFacetsTogether",
			state: Open().WithMake(SpecificMake("Audi")).WithPrice(PriceRange{Low: 700, High: 800}).WithTags("SUV"),
			want:  []int64{5},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Apply(sampleDeals(), tc.state)))
		})
	}
}

func TestApplyPriceWindow(t *testing.T) {
	var listings []dal.Listing
	for i, p := range []float64{329, 499, 699, 749, 799} {
		listings = append(listings, dal.Listing{ID: int64(i + 1), Make: "Any", LeasePrice: p})
	}

	got := Apply(listings, Open().WithPrice(PriceRange{Low: 400, High: 750}))

	var prices []float64
	for _, l := range got {
		prices = append(prices, l.LeasePrice)
	}
	assert.Equal(t, []float64{499, 699, 749}, prices)
}

func TestApplyTeslaScenario(t *testing.T) {
	listings := []dal.Listing{
		{ID: 1, Make: "Tesla", LeasePrice: 499, Tags: []string{"Electric"}},
		{ID: 2, Make: "BMW", LeasePrice: 699, Tags: []string{"Luxury"}},
	}
	state := State{Make: SpecificMake("Tesla"), Price: PriceRange{Low: 0, High: 1000}, Tags: NewTagSet()}

	got := Apply(listings, state)
	require.Len(t, got, 1)
	assert.Equal(t, listings[0], got[0])
}

func TestApplyTagMembership(t *testing.T) {
	l := []dal.Listing{{ID: 7, Make: "BMW", LeasePrice: 699, Tags: []string{"Luxury", "SUV"}}}

	assert.Len(t, Apply(l, Open().WithTags("SUV")), 1)
	assert.Empty(t, Apply(l, Open().WithTags("Electric")))
}

func TestApplyIsOrderedSubsequence(t *testing.T) {
	all := sampleDeals()
	states := []State{
		Open(),
		Open().WithTags("Luxury"),
		Open().WithPrice(PriceRange{Low: 300, High: 500}),
		Open().WithMake(SpecificMake("Honda")),
		Open().WithTags("Sedan", "SUV").WithPrice(PriceRange{Low: 450, High: 760}),
	}
	for _, s := range states {
		got := Apply(all, s)
		j := 0
		for _, l := range got {
			for j < len(all) && all[j].ID != l.ID {
				j++
			}
			require.Less(t, j, len(all), "listing %d is not in input order", l.ID)
			assert.Equal(t, all[j], l)
			j++
		}
	}
}

func TestApplyMonotoneUnderRelaxation(t *testing.T) {
	all := sampleDeals()
	strict := State{
		Make:  SpecificMake("BMW"),
		Price: PriceRange{Low: 600, High: 700},
		Tags:  NewTagSet("SUV"),
	}
	relaxed := []State{
		strict.WithMake(AllMakes()),
		strict.WithPrice(strict.Price.Widen(PriceRange{Low: 0, High: 1000})),
		{Make: strict.Make, Price: strict.Price, Tags: strict.Tags.Without("SUV")},
	}

	narrow := ids(Apply(all, strict))
	for _, r := range relaxed {
		wide := ids(Apply(all, r))
		assert.Subset(t, wide, narrow)
	}
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	all := sampleDeals()
	got := Apply(all, Open())
	got[0].Make = "Changed"
	assert.Equal(t, "Tesla", all[0].Make)
}

func TestParseMakeSelector(t *testing.T) {
	assert.True(t, ParseMakeSelector("all").IsAll())
	assert.True(t, ParseMakeSelector("").IsAll())
	assert.True(t, MakeSelector{}.IsAll())
	assert.False(t, SpecificMake("").IsAll())

	m := ParseMakeSelector("Tesla")
	name, ok := m.Make()
	assert.True(t, ok)
	assert.Equal(t, "Tesla", name)
	assert.Equal(t, "Tesla", m.String())
}

func TestSpecificMakeEmptyIsExact(t *testing.T) {
	unnamed := dal.Listing{ID: 9, Make: ""}
	named := dal.Listing{ID: 10, Make: "Kia"}

	sel := SpecificMake("")
	assert.True(t, sel.Matches(unnamed))
	assert.False(t, sel.Matches(named))
	name, ok := sel.Make()
	assert.True(t, ok)
	assert.Empty(t, name)

	assert.True(t, AllMakes().Matches(named))
	_, ok = AllMakes().Make()
	assert.False(t, ok)
}

func TestTagSetToggle(t *testing.T) {
	s := NewTagSet()
	s = s.Toggle("SUV")
	s = s.Toggle("Luxury")
	assert.Equal(t, []string{"Luxury", "SUV"}, s.Slice())

	off := s.Toggle("SUV")
	assert.Equal(t, []string{"Luxury"}, off.Slice())
	assert.True(t, s.Has("SUV"), "toggle must not mutate the receiver")
}

func TestExtractFacets(t *testing.T) {
	f := ExtractFacets(sampleDeals())

	assert.Equal(t, []string{"Audi", "BMW", "Honda", "Mercedes-Benz", "Tesla", "Toyota"}, f.Makes)
	assert.Contains(t, f.Tags, "Eco-friendly")
	assert.Equal(t, f.Tags[0], "Eco-friendly")
	assert.Equal(t, 799.0, f.ObservedMax)
	assert.Equal(t, 899.0, f.MaxPrice)

	d := Default(f)
	assert.True(t, d.Make.IsAll())
	assert.Equal(t, PriceRange{Low: 0, High: 899}, d.Price)
	assert.Zero(t, d.Tags.Len())
	assert.Len(t, Apply(sampleDeals(), d), len(sampleDeals()))
}

func TestExtractFacetsEmpty(t *testing.T) {
	f := ExtractFacets(nil)
	assert.Empty(t, f.Makes)
	assert.Empty(t, f.Tags)
	assert.Equal(t, float64(PriceMargin), f.MaxPrice)
}
