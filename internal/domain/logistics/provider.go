package logistics

import (
	"fmt"
	"strconv"
	"strings"
)

// Provider identifies an external warehouse-management system
type Provider string

const (
	ProviderOrian       Provider = "ORIAN"
	ProviderPickAndPack Provider = "PICK_AND_PACK"
)

// IsValid checks if the provider is known
func (p Provider) IsValid() bool {
	return p == ProviderOrian || p == ProviderPickAndPack
}

// String returns the string representation of Provider
func (p Provider) String() string {
	return string(p)
}

// ParseProvider accepts the canonical name or the URL slug form
// ("orian", "pick-and-pack")
func ParseProvider(s string) (Provider, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	p := Provider(normalized)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown logistics provider %q", s)
	}
	return p, nil
}

// idNamespace is the fixed part of every provider identifier
const idNamespace = "NKS"

// IDMapper maps local numeric ids to provider identifiers of the form
// NKS<prefix><id> and back
type IDMapper struct {
	Prefix string
}

// NewIDMapper creates a mapper for a provider prefix
func NewIDMapper(prefix string) IDMapper {
	return IDMapper{Prefix: prefix}
}

// ToProvider returns the provider identifier for a local id
func (m IDMapper) ToProvider(id int64) string {
	return idNamespace + m.Prefix + strconv.FormatInt(id, 10)
}

// FromProvider recovers the local id. Identifiers that do not parse
// report ok=false.
func (m IDMapper) FromProvider(providerID string) (int64, bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(providerID), idNamespace+m.Prefix)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
