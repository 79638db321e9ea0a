package domain

import "testing"

func frescosChecklist() Checklist {
	return Checklist{
		ID:   7,
		Name: "Frescos",
		Sections: []Section{{
			ID:   DefaultFrescosSectionID,
			Name: "Frescos",
			Items: []Item{
				{ID: 30, Name: "3.1 Talho", Criteria: []Criterion{okko(301), okko(302)}},
				{ID: 31, Name: "3.2 Peixaria", Criteria: []Criterion{okko(311)}},
				{ID: 32, Name: "3.1 Talho balcão", Criteria: []Criterion{{ID: 303, Kind: KindText}}},
				{ID: 33, Name: "Geral", Criteria: []Criterion{okko(321)}},
			},
		}},
	}
}

func TestParseSectionKey(t *testing.T) {
	tests := []struct {
		in      string
		want    SectionKey
		wantErr bool
	}{
		{in: "4", want: WholeSection(4)},
		{in: " 3_3.1 ", want: Subsection(3, "3.1")},
		{in: "3_other", want: Subsection(3, CatchAllPrefix)},
		{in: "", wantErr: true},
		{in: "x", wantErr: true},
		{in: "0", wantErr: true},
		{in: "3_", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSectionKey(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSectionKey(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSectionKey(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSectionKey(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if again, _ := ParseSectionKey(got.String()); again != got {
				t.Errorf("String() does not round-trip: %s", got)
			}
		})
	}
}

func TestSubsectionPrefix(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"3.1 Talho", "3.1", true},
		{"  3.12 Padaria", "3.12", true},
		{"3.1Talho", "", false},
		{"Talho 3.1 ", "", false},
		{"3 Talho", "", false},
	}
	for _, tt := range tests {
		got, ok := SubsectionPrefix(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("SubsectionPrefix(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestGroupSection(t *testing.T) {
	checklist := frescosChecklist()
	groups := GroupSection(checklist.Sections[0], DefaultPolicy())
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if got := len(groups[0].Items); got != 2 {
		t.Errorf("group 3.1 has %d items, want 2", got)
	}
	if groups[2].Label != "Frescos" {
		t.Errorf("catch-all label = %q, want section name", groups[2].Label)
	}

	plain := Section{ID: 4, Name: "Higiene", Items: []Item{{ID: 1, Name: "4.1 Chão"}}}
	groups = GroupSection(plain, DefaultPolicy())
	if len(groups) != 1 || groups[0].Key != WholeSection(4) {
		t.Errorf("plain section groups = %+v, want single whole-section group", groups)
	}
}

func TestGroupIndexFind(t *testing.T) {
	idx := GroupChecklist(frescosChecklist(), DefaultPolicy())
	if _, ok := idx.Find(Subsection(3, "3.2")); !ok {
		t.Error("expected to find 3_3.2")
	}
	if _, ok := idx.Find(WholeSection(3)); ok {
		t.Error("whole FRESCOS section must not be addressable")
	}
}

func TestResolveEvaluationType(t *testing.T) {
	checklist := Checklist{ID: 1, Name: "c", Sections: []Section{{ID: 1, Items: []Item{{ID: 1, Criteria: []Criterion{
		scale(10),
		{ID: 11, Kind: KindRating},
		{ID: 12, Kind: KindDropdown},
	}}}}}}

	tests := []struct {
		id        int
		wantType  EvaluationType
		wantFound bool
		wantKind  CriterionKind
	}{
		{10, EvaluationScale, true, KindRating},
		{11, EvaluationOKKO, true, KindRating},
		{12, EvaluationOKKO, true, KindDropdown},
		{404, EvaluationOKKO, false, KindRating},
	}
	for _, tt := range tests {
		got := ResolveEvaluationType(checklist, tt.id)
		if got.Type != tt.wantType || got.Found != tt.wantFound || got.Kind != tt.wantKind {
			t.Errorf("ResolveEvaluationType(%d) = %+v", tt.id, got)
		}
	}
}
