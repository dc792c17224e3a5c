package textclean

import (
	"reflect"
	"testing"
)

func TestExpandContractions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"wont", "won't", "will not"},
		{"cant", "can't", "cannot"},
		{"shant", "shan't", "shall not"},
		{"aint", "ain't", "is not"},
		{"lets", "let's", "let us"},
		{"stacked yall", "y'all'd've", "you all would have"},
		{"yall plain", "y'all come back", "you all come back"},
		{"negative nt", "don't stop", "do not stop"},
		{"pronoun re", "they're here", "they are here"},
		{"pronoun ve", "we've arrived", "we have arrived"},
		{"pronoun ll", "she'll go", "she will go"},
		{"pronoun d", "he'd go", "he would go"},
		{"im", "I'm tired", "i am tired"},
		{"possessive s expands to is", "that's fine", "that is fine"},
		{"curly quote", "won’t", "will not"},
		{"no contraction untouched", "plain words here", "plain words here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandContractions(tt.input); got != tt.want {
				t.Errorf("ExpandContractions(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"shop sentence", "I'm going to the shop.", "me going to the shop"},
		{"wont", "won't", "will not"},
		{"yalldve", "y'all'd've", "you all would have"},
		{"pronoun substitution", "I like tea", "me like tea"},
		{"copula dropped", "I am happy", "me happy"},
		{"punctuation stripped", "hello, world!", "hello world"},
		{"whitespace collapsed", "  too   many    spaces ", "too many spaces"},
		{"underscores stripped", "snake_case word", "snakecase word"},
		{"empty", "", ""},
		{"only punctuation", "?!...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWordSetMissing(t *testing.T) {
	set := NewWordSet([]string{"shop", "go"})

	got := set.Missing("shop car")
	if !reflect.DeepEqual(got, []string{"car"}) {
		t.Errorf("Missing(\"shop car\") = %v, want [car]", got)
	}

	if missing := set.Missing("shop go"); missing != nil {
		t.Errorf("Missing(\"shop go\") = %v, want nil", missing)
	}

	// Matching is case-insensitive.
	if missing := set.Missing("SHOP Go"); missing != nil {
		t.Errorf("Missing(\"SHOP Go\") = %v, want nil", missing)
	}

	if missing := set.Missing(""); missing != nil {
		t.Errorf("Missing(\"\") = %v, want nil", missing)
	}
}
