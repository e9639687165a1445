package quoting

import "strings"

// reserved keywords that force an identifier to be quoted.
var identKeywords = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"array": true, "as": true, "asc": true, "asymmetric": true, "both": true,
	"case": true, "cast": true, "check": true, "collate": true, "column": true,
	"constraint": true, "create": true, "current_date": true,
	"current_role": true, "current_time": true, "current_timestamp": true,
	"current_user": true, "default": true, "deferrable": true, "desc": true,
	"distinct": true, "do": true, "else": true, "end": true, "except": true,
	"false": true, "for": true, "foreign": true, "from": true, "grant": true,
	"group": true, "having": true, "in": true, "initially": true,
	"intersect": true, "into": true, "leading": true, "limit": true,
	"localtime": true, "localtimestamp": true, "new": true, "not": true,
	"null": true, "off": true, "offset": true, "old": true, "on": true,
	"only": true, "or": true, "order": true, "placing": true, "primary": true,
	"references": true, "returning": true, "select": true,
	"session_user": true, "some": true, "symmetric": true, "table": true,
	"then": true, "to": true, "trailing": true, "true": true, "union": true,
	"unique": true, "user": true, "using": true, "when": true, "where": true,
}

// identNeedsQuoting reports whether s contains anything outside
// [a-z0-9_] or collides with a reserved keyword.
func identNeedsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			continue
		}
		return true
	}
	return identKeywords[s]
}

// QuoteIdent quotes a SQL identifier when it contains weird characters or is
// a reserved keyword; plain lowercase identifiers pass through unchanged.
func QuoteIdent(s string) string {
	if !identNeedsQuoting(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteFQIdent quotes a fully qualified identifier: the first '.' separates
// the namespace, and both parts are quoted independently.
func QuoteFQIdent(s string) string {
	schema, name, found := strings.Cut(s, ".")
	if !found {
		return QuoteIdent(s)
	}
	return QuoteIdent(schema) + "." + QuoteIdent(name)
}
