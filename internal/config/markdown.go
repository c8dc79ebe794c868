package config

import "regexp"

// RegexCallout matches `// <<n>>` markers inside highlighted code blocks,
// which the renderer wraps in a callout span.
var RegexCallout = regexp.MustCompile(`//\s*<<(\d+)>>`)
