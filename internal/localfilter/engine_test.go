package localfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type institution struct {
	Name       string
	HeadOffice string
	Type       string
}

func name(i institution) string       { return i.Name }
func headOffice(i institution) string { return i.HeadOffice }
func kind(i institution) string       { return i.Type }

func testCollection() []institution {
	return []institution{
		{Name: "University of Dar es Salaam", HeadOffice: "Dar es Salaam", Type: "Public"},
		{Name: "Ardhi University", HeadOffice: "Dar es Salaam", Type: "Public"},
		{Name: "Sokoine University", HeadOffice: "Morogoro", Type: "Public"},
	}
}

func TestFilter_SearchMatchesAnyTextField(t *testing.T) {
	got := Filter(testCollection(), Predicate[institution]{
		Search:     "dar",
		TextFields: []Field[institution]{name, headOffice},
	})
	assert.Len(t, got, 2)
	assert.Equal(t, "University of Dar es Salaam", got[0].Name)
	assert.Equal(t, "Ardhi University", got[1].Name)
}

func TestFilter_SearchAndExactAreConjunctive(t *testing.T) {
	tests := []struct {
		name   string
		search string
		region string
		typ    string
		want   []string
	}{
		{name: "search and region", search: "dar", region: "Dar es Salaam", want: []string{"University of Dar es Salaam", "Ardhi University"}},
		{name: "search excludes region match", search: "sokoine", region: "Dar es Salaam", want: []string{}},
		{name: "region only", region: "Morogoro", want: []string{"Sokoine University"}},
		{name: "type and region", region: "Dar es Salaam", typ: "Private", want: []string{}},
		{name: "no criteria", want: []string{"University of Dar es Salaam", "Ardhi University", "Sokoine University"}},
		{name: "case insensitive", search: "ARDHI", want: []string{"Ardhi University"}},
		{name: "whitespace is not trimmed", search: "university ", want: []string{"University of Dar es Salaam"}},
		{name: "blank search is literal", search: "  ", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(testCollection(), Predicate[institution]{
				Search:     tt.search,
				TextFields: []Field[institution]{name, headOffice},
				ExactFields: []Exact[institution]{
					{Field: headOffice, Value: tt.region},
					{Field: kind, Value: tt.typ},
				},
			})
			names := make([]string, 0, len(got))
			for _, g := range got {
				names = append(names, g.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestDistinctValues(t *testing.T) {
	items := append(testCollection(), institution{Name: "Unknown", HeadOffice: ""})
	assert.Equal(t, []string{"Dar es Salaam", "Morogoro"}, DistinctValues(items, headOffice))
	assert.Equal(t, []string{"Public"}, DistinctValues(items, kind))
	assert.Empty(t, DistinctValues([]institution{}, kind))
}
