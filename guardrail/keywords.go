package guardrail

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/types"
)

// KeywordMatch is the result info of a tripped keyword guardrail.
type KeywordMatch struct {
	Pattern string `json:"pattern"`
	Match   string `json:"match"`
}

// Keywords trips when the text matches any of the patterns. Patterns are
// case-insensitive regular expressions; invalid patterns panic.
func Keywords(patterns ...string) CheckFunc {
	type compiled struct {
		pattern string
		re      *regexp.Regexp
	}
	res := make([]compiled, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			panic(fmt.Sprintf("guardrail: invalid keyword pattern %q: %v", p, err))
		}
		res = append(res, compiled{pattern: p, re: re})
	}

	return func(_ context.Context, _ api.Agent, text string, _ types.ContextVars) (api.GuardrailResult, error) {
		for _, c := range res {
			if m := c.re.FindString(text); m != "" {
				return api.GuardrailResult{
					TripwireTriggered: true,
					Info:              KeywordMatch{Pattern: c.pattern, Match: m},
				}, nil
			}
		}
		return api.GuardrailResult{}, nil
	}
}
