package pipeline

import (
	"reflect"
	"testing"

	"github.com/sprachlab/lerngraph/pkg/common"
)

func sentenceTexts(sentences []common.Sentence) []string {
	texts := make([]string, 0, len(sentences))
	for _, s := range sentences {
		texts = append(texts, s.Text)
	}
	return texts
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "single sentence without terminator",
			input: "Ich warte auf den Bus",
			want:  []string{"Ich warte auf den Bus"},
		},
		{
			name:  "three terminators",
			input: "Ich warte. Kommst du? Beeil dich!",
			want:  []string{"Ich warte.", "Kommst du?", "Beeil dich!"},
		},
		{
			name:  "terminator runs stay together",
			input: "Wirklich?! Ja... Gut.",
			want:  []string{"Wirklich?!", "Ja...", "Gut."},
		},
		{
			name:  "closing quote absorbed",
			input: `Er sagte "Warte hier." Dann ging er.`,
			want:  []string{`Er sagte "Warte hier."`, "Dann ging er."},
		},
		{
			name:  "numeric listing marker does not split",
			input: "1. Kapitel beginnt hier. Es ist kurz.",
			want:  []string{"1. Kapitel beginnt hier.", "Es ist kurz."},
		},
		{
			name:  "decimal-like ordinal inside sentence",
			input: "Am 3. Tag regnete es. Danach nicht mehr.",
			want:  []string{"Am 3. Tag regnete es.", "Danach nicht mehr."},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := sentenceTexts(SplitSentences(tc.input))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SplitSentences(%q) = %#v, want %#v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSplitSentences_IndicesAndOffsets(t *testing.T) {
	input := "Ich warte. Kommst du?"
	sentences := SplitSentences(input)
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(sentences))
	}

	for i, s := range sentences {
		if s.Idx != i {
			t.Errorf("sentence %d has Idx %d", i, s.Idx)
		}
		if input[s.Start:s.End] != s.Text {
			t.Errorf("offsets of sentence %d do not recover its text: %q != %q",
				i, input[s.Start:s.End], s.Text)
		}
	}
	if sentences[0].Text != "Ich warte." || sentences[1].Text != "Kommst du?" {
		t.Fatalf("unexpected sentence texts: %#v", sentenceTexts(sentences))
	}
}

func TestSplitSentences_UmlautOffsets(t *testing.T) {
	input := "Schöne Grüße! Bis bald."
	sentences := SplitSentences(input)
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(sentences))
	}
	for i, s := range sentences {
		if input[s.Start:s.End] != s.Text {
			t.Errorf("byte offsets of sentence %d broken by multibyte runes", i)
		}
	}
}

func TestBatchSentences(t *testing.T) {
	src := BuildSourceText("Eins. Zwei. Drei. Vier. Fünf.")
	if len(src.Sentences) != 5 {
		t.Fatalf("expected 5 sentences, got %d", len(src.Sentences))
	}

	t.Run("short text is one batch", func(t *testing.T) {
		batches := batchSentences(src, 2, 100)
		if len(batches) != 1 || len(batches[0]) != 5 {
			t.Fatalf("expected a single batch of 5, got %d batches", len(batches))
		}
	})

	t.Run("batches preserve order", func(t *testing.T) {
		batches := batchSentences(src, 2, 0)
		if len(batches) != 3 {
			t.Fatalf("expected 3 batches, got %d", len(batches))
		}
		idx := 0
		for _, batch := range batches {
			for _, s := range batch {
				if s.Idx != idx {
					t.Fatalf("batches out of order: got Idx %d, want %d", s.Idx, idx)
				}
				idx++
			}
		}
	})

	t.Run("empty source has no batches", func(t *testing.T) {
		if batches := batchSentences(common.SourceText{}, 2, 0); batches != nil {
			t.Fatalf("expected nil, got %#v", batches)
		}
	})
}
