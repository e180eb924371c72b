package githubapi

import "fmt"

type graphqlRequest struct {
	Query string `json:"query"`
}

type RawResponse struct {
	Data   map[string]*User `json:"data"`
	Errors []GraphQLError   `json:"errors,omitempty"`
}

type GraphQLError struct {
	Type    string        `json:"type,omitempty"`
	Message string        `json:"message"`
	Path    []interface{} `json:"path,omitempty"`
}

func (e GraphQLError) String() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: %s %v", e.Type, e.Message, e.Path)
	}
	return fmt.Sprintf("%s %v", e.Message, e.Path)
}

type User struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Followers struct {
		TotalCount int `json:"totalCount"`
	} `json:"followers"`
	Repositories struct {
		Nodes []struct {
			StargazerCount int `json:"stargazerCount"`
		} `json:"nodes"`
	} `json:"repositories"`
}

// Stars sums the stargazers of the returned repositories.
func (u *User) Stars() int {
	total := 0
	for _, repo := range u.Repositories.Nodes {
		total += repo.StargazerCount
	}
	return total
}

// BatchResult is a resolved Query: Users is keyed by the original login and
// only holds lookups the API answered.
type BatchResult struct {
	Users     map[string]*User
	Errors    []GraphQLError
	Remaining string
}
