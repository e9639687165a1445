package quoting

import (
	"reflect"
	"testing"
)

func TestURLDecode(t *testing.T) {
	for _, tc := range []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "Empty",
			input: "",
			want:  map[string]string{},
		},
		{
			name:  "Simple",
			input: "name=alice&city=tallinn",
			want:  map[string]string{"name": "alice", "city": "tallinn"},
		},
		{
			name:  "KeyWithoutValue",
			input: "deleted",
			want:  map[string]string{"deleted": ""},
		},
		{
			name:  "Escapes",
			input: "note=a%26b%3Dc&sp=one+two",
			want:  map[string]string{"note": "a&b=c", "sp": "one two"},
		},
		{
			name:  "DuplicateKeepsLast",
			input: "k=1&k=2",
			want:  map[string]string{"k": "2"},
		},
		{
			name:    "BadEscape",
			input:   "k=%zz",
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := URLDecode(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("URLDecode(%q): %v", tc.input, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("URLDecode(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"users", "users"},
		{"ev_id", "ev_id"},
		{"t2", "t2"},
		{"select", `"select"`},
		{"user", `"user"`},
		{"Mixed", `"Mixed"`},
		{"odd name", `"odd name"`},
		{`has"quote`, `"has""quote"`},
		{"", `""`},
	} {
		if got := QuoteIdent(tc.input); got != tc.want {
			t.Errorf("QuoteIdent(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestQuoteFQIdent(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"pgq.event", "pgq.event"},
		{"public.user", `public."user"`},
		{"plain", "plain"},
		{"schema.tab.le", `schema."tab.le"`},
	} {
		if got := QuoteFQIdent(tc.input); got != tc.want {
			t.Errorf("QuoteFQIdent(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestUnescape(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{`tab\there`, "tab\there"},
		{`line\nbreak\r`, "line\nbreak\r"},
		{`back\\slash`, `back\slash`},
		{`quotes \' and \"`, `quotes ' and "`},
		{`octal\101`, "octalA"},
		{`null\000byte`, "null\x00byte"},
		{`unknown\xescape`, "unknownxescape"},
		{`trailing\`, `trailing\`},
		{"", ""},
	} {
		if got := Unescape(tc.input); got != tc.want {
			t.Errorf("Unescape(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestURLEncodeDeterministic(t *testing.T) {
	fields := map[string]string{"b": "2", "a": "1", "odd key": "a&b"}
	want := "a=1&b=2&odd+key=a%26b"
	if got := URLEncode(fields); got != want {
		t.Errorf("URLEncode = %q, want %q", got, want)
	}

	back, err := URLDecode(URLEncode(fields))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if !reflect.DeepEqual(back, fields) {
		t.Errorf("round trip = %v, want %v", back, fields)
	}
}
