package secret

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var refPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand substitutes environment references in s.
//
// Both $VAR and ${VAR} forms are expanded. A ${VAR} reference to a variable
// missing from the environment is an error naming every missing variable;
// plain $VAR follows os.ExpandEnv and expands to the empty string. $$ emits
// a literal $.
func Expand(s string) (string, error) {
	// Shield escaped dollars from both the reference scan and os.ExpandEnv.
	const sentinel = "\x00vigil.dollar\x00"
	s = strings.ReplaceAll(s, "$$", sentinel)

	var missing []string
	seen := make(map[string]struct{})
	for _, m := range refPattern.FindAllStringSubmatch(s, -1) {
		name := m[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := os.LookupEnv(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("secret: unset environment variables: %s", strings.Join(missing, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, sentinel, "$"), nil
}
