package doi

import (
	"context"
	"fmt"
	"strings"
)

// LocalRegistrar mints identifiers under a prefix without calling out, for
// development and journals that deposit metadata out of band.
type LocalRegistrar struct {
	prefix string
}

// NewLocalRegistrar builds a registrar for prefix (e.g. "10.5555").
func NewLocalRegistrar(prefix string) *LocalRegistrar {
	return &LocalRegistrar{prefix: strings.TrimRight(prefix, "/")}
}

// Assign implements Registrar.
func (r *LocalRegistrar) Assign(ctx context.Context, meta Metadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if meta.ManuscriptID == "" {
		return "", fmt.Errorf("manuscript id required")
	}
	value := fmt.Sprintf("%s/%s", r.prefix, strings.ToLower(meta.ManuscriptID))
	if !Valid(value) {
		return "", fmt.Errorf("minted identifier %q is not a valid doi", value)
	}
	return value, nil
}
