package github

import (
	"errors"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v68/github"
)

// FormatError renders an upstream failure for Discord users: the API
// message, then a block of field errors when GitHub returned any.
func FormatError(err error) string {
	var ghErr *gh.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return "Operation was not successful"
	}
	var b strings.Builder
	b.WriteString(ghErr.Message)
	if len(ghErr.Errors) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "\nStatus: %d, Error(s):\n", ghErr.Response.StatusCode)
	for i, e := range ghErr.Errors {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Join(fieldLines(e), "\n"))
	}
	return b.String()
}

func fieldLines(e gh.Error) []string {
	pairs := [][2]string{
		{"Resource", e.Resource},
		{"Code", e.Code},
		{"Field", e.Field},
		{"Message", e.Message},
	}
	var out []string
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		out = append(out, "> "+p[0]+": `"+p[1]+"`")
	}
	return out
}
