package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const DomainLogicalTests = "logical-tests"

// Keyspace names one cached entity kind. Keys have the shapes
//
//	{domain}:{kind}:{id}:{language}
//	{domain}:{kind}:list:{filterHash}
type Keyspace struct {
	Domain string
	Kind   string
}

var (
	LogicalTests    = Keyspace{Domain: DomainLogicalTests, Kind: "test"}
	Classifications = Keyspace{Domain: DomainLogicalTests, Kind: "classifications"}
	Questions       = Keyspace{Domain: DomainLogicalTests, Kind: "questions"}
)

func (k Keyspace) Entity(id fmt.Stringer, languageCode string) string {
	return fmt.Sprintf("%s:%s:%s:%s", k.Domain, k.Kind, id, languageCode)
}

// EntityKeys returns the entity key of id for every language code.
func (k Keyspace) EntityKeys(id fmt.Stringer, languageCodes []string) []string {
	keys := make([]string, 0, len(languageCodes))
	for _, code := range languageCodes {
		keys = append(keys, k.Entity(id, code))
	}
	return keys
}

// List hashes the filter together with the list generation. Bumping the
// generation orphans every list key of the keyspace at once.
func (k Keyspace) List(generation int64, filter any) string {
	return fmt.Sprintf("%s:%s:list:%s", k.Domain, k.Kind, FilterHash(generation, filter))
}

func (k Keyspace) generationKey() string {
	return fmt.Sprintf("%s:%s:list-generation", k.Domain, k.Kind)
}

func FilterHash(generation int64, filter any) string {
	payload, err := json.Marshal(filter)
	if err != nil {
		payload = fmt.Appendf(nil, "%#v", filter)
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%d|%s", generation, payload))
	return hex.EncodeToString(sum[:8])
}
