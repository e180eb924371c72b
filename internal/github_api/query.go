package githubapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Query is a GraphQL document looking up several users at once. GraphQL
// forbids repeating a field name, so every lookup gets an alias; Aliases
// maps each alias back to the login it was built for.
type Query struct {
	Text    string
	Aliases map[string]string
	Order   []string
}

func Alias(i int) string {
	return fmt.Sprintf("user_%d", i)
}

const userFields = `login
    name
    followers { totalCount }
    repositories(first: 100, ownerAffiliations: OWNER, isFork: false) {
      nodes { stargazerCount }
    }`

// BuildQuery aliases the i-th username as user_i.
func BuildQuery(usernames []string) Query {
	q := Query{
		Aliases: make(map[string]string, len(usernames)),
		Order:   make([]string, 0, len(usernames)),
	}

	var b strings.Builder
	b.WriteString("query {\n")
	for i, username := range usernames {
		alias := Alias(i)
		q.Aliases[alias] = username
		q.Order = append(q.Order, alias)
		fmt.Fprintf(&b, "  %s: user(login: %s) {\n    %s\n  }\n", alias, quote(username), userFields)
	}
	b.WriteString("}\n")
	q.Text = b.String()
	return q
}

// quote renders s as a GraphQL string literal. JSON escaping is a subset
// GraphQL accepts.
func quote(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}
