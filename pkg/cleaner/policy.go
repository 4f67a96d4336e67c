package cleaner

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"
)

// Policy names accepted by NewPolicy.
const (
	PolicyUGC    = "ugc"
	PolicyStrict = "strict"
)

// PolicyCleaner runs a bluemonday allow-list over content. Chained after the
// scrub pipeline it gives deployments a second, parser-based guarantee.
// bluemonday re-escapes text, so "&" comes back as "&amp;".
type PolicyCleaner struct {
	name   string
	policy *bluemonday.Policy
}

// NewPolicy creates a policy cleaner. "ugc" keeps the formatting a post body
// needs; "strict" strips every tag. Unknown names fall back to "ugc".
func NewPolicy(name string) *PolicyCleaner {
	switch name {
	case PolicyStrict:
		return &PolicyCleaner{name: PolicyStrict, policy: bluemonday.StrictPolicy()}
	default:
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(false)
		return &PolicyCleaner{name: PolicyUGC, policy: p}
	}
}

// Clean sanitizes html with the configured policy.
func (c *PolicyCleaner) Clean(html string) (string, error) {
	if c.policy == nil {
		return "", fmt.Errorf("policy %q not initialised", c.name)
	}
	return c.policy.Sanitize(html), nil
}

// Name returns the cleaner type.
func (c *PolicyCleaner) Name() string {
	return "policy-" + c.name
}
