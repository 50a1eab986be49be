package ai

import (
	"errors"
	"testing"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	type entry struct {
		Lemma string `json:"lemma"`
		Gloss string `json:"gloss,omitempty"`
	}

	tests := []struct {
		name  string
		input string
		want  entry
	}{
		{
			name:  "valid json object",
			input: `{"lemma":"Haus"}`,
			want:  entry{Lemma: "Haus"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{lemma: 'Haus'}`,
			want:  entry{Lemma: "Haus"},
		},
		{
			name:  "trailing comma",
			input: `{"lemma":"Haus",}`,
			want:  entry{Lemma: "Haus"},
		},
		{
			name:  "missing endbracket",
			input: `{"lemma":"Haus`,
			want:  entry{Lemma: "Haus"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{lemma: 'Haus'}"`,
			want:  entry{Lemma: "Haus"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"lemma\": \"Haus\"\n}\n",
			want:  entry{Lemma: "Haus"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got entry
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Lemma != tc.want.Lemma || got.Gloss != tc.want.Gloss {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_ArrayVariants(t *testing.T) {
	type entry struct {
		Lemma string `json:"lemma"`
	}

	input := `[{lemma:'warten'},{lemma:'Haus',}]`
	var got []entry
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got) != 2 || got[0].Lemma != "warten" || got[1].Lemma != "Haus" {
		t.Fatalf("UnmarshalFlexible() got = %+v, want two entries warten,Haus", got)
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	type entry struct {
		Lemma string `json:"lemma"`
	}

	var got entry
	err := UnmarshalFlexible("hallo", &got)
	if err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("UnmarshalFlexible() error = %v, want ErrMalformed", err)
	}
}

func TestUnmarshalFlexible_StringifiedWithNewlines(t *testing.T) {
	type candidate struct {
		SurfaceForm string   `json:"surface_form"`
		Canonical   string   `json:"canonical"`
		Tags        []string `json:"tags"`
	}

	input := `"{\n  \"surface_form\": \"wartete auf\",\n  \"canonical\": \"warten auf\",\n  \"tags\": [\"chunk\", \"B1\"]\n  }\n"`
	var got candidate
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if got.SurfaceForm != "wartete auf" || got.Canonical != "warten auf" {
		t.Fatalf("UnmarshalFlexible() got = %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "chunk" || got.Tags[1] != "B1" {
		t.Fatalf("UnmarshalFlexible() tags = %v", got.Tags)
	}
}
