package tokenize

import "testing"

func TestTextLowercasesAndDropsStopWords(t *testing.T) {
	tmp := Text("a.txt", []byte("The Quick Brown Fox is Fast"))
	for _, w := range []string{"quick", "brown", "fox", "fast"} {
		if _, ok := tmp.Words[w]; !ok {
			t.Errorf("expected %q to be tokenised", w)
		}
	}
	for _, stop := range []string{"the", "is"} {
		if _, ok := tmp.Words[stop]; ok {
			t.Errorf("expected stop word %q to be dropped", stop)
		}
	}
}

func TestTextCountsOccurrences(t *testing.T) {
	tmp := Text("a.txt", []byte("dog cat dog dog cat"))
	if tmp.Words["dog"] != 3 {
		t.Errorf("expected dog count 3, got %d", tmp.Words["dog"])
	}
	if tmp.Words["cat"] != 2 {
		t.Errorf("expected cat count 2, got %d", tmp.Words["cat"])
	}
}

func TestHTMLStripsTagsAndEntities(t *testing.T) {
	tmp := HTML("a.html", []byte(`<html><body><p>Hello&nbsp;World</p></body></html>`))
	if _, ok := tmp.Words["hello"]; !ok {
		t.Error("expected 'hello' to survive tag/entity stripping")
	}
	if _, ok := tmp.Words["world"]; !ok {
		t.Error("expected 'world' to survive tag/entity stripping")
	}
	for w := range tmp.Words {
		if w == "html" || w == "body" || w == "p" || w == "nbsp" {
			t.Errorf("unexpected tag/entity fragment tokenised: %q", w)
		}
	}
}
