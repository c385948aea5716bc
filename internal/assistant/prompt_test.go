package assistant

import "testing"

func TestAssemble(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sections []Section
		want     string
	}{
		{
			name:     "no sections",
			sections: nil,
			want:     "",
		},
		{
			name: "single section",
			sections: []Section{
				{Name: SectionQuestion, Text: "What is Streamlit?"},
			},
			want: "<question>\nWhat is Streamlit?\n</question>",
		},
		{
			name: "empty sections omitted entirely",
			sections: []Section{
				{Name: SectionInstructions, Text: "Be helpful."},
				{Name: SectionPages, Text: ""},
				{Name: SectionQuestion, Text: "hi"},
			},
			want: "<instructions>\nBe helpful.\n</instructions>\n<question>\nhi\n</question>",
		},
		{
			name: "all sections empty",
			sections: []Section{
				{Name: SectionPages, Text: ""},
				{Name: SectionSummary, Text: ""},
			},
			want: "",
		},
		{
			name: "order follows input order",
			sections: []Section{
				{Name: "b", Text: "2"},
				{Name: "a", Text: "1"},
			},
			want: "<b>\n2\n</b>\n<a>\n1\n</a>",
		},
		{
			name: "multiline text preserved",
			sections: []Section{
				{Name: SectionRecent, Text: "[user]: hi\n[assistant]: hello"},
			},
			want: "<recent_messages>\n[user]: hi\n[assistant]: hello\n</recent_messages>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Assemble(tt.sections); got != tt.want {
				t.Errorf("Assemble() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssembleIdempotent(t *testing.T) {
	t.Parallel()

	sections := []Section{
		{Name: SectionInstructions, Text: "Be helpful."},
		{Name: SectionPages, Text: "[url]: chunk"},
		{Name: SectionQuestion, Text: "What is Streamlit?"},
	}
	first := Assemble(sections)
	second := Assemble(sections)
	if first != second {
		t.Errorf("Assemble not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}
