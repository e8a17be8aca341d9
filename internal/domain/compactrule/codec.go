package compactrule

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	ierr "github.com/flexprice/curbside/internal/errors"
)

// DefaultChunkSize keeps every value under the provider's 500 character metadata limit
const DefaultChunkSize = 480

// Encode serializes rules into one or more metadata values keyed name,
// name_1, name_2 and so on. Every chunk is itself a JSON array split on rule
// boundaries and never exceeds chunkSize bytes; bytes never undercount the
// provider's character limit.
func Encode(name string, rules []Rule, chunkSize int) (map[string]string, error) {
	if name == "" {
		return nil, ierr.NewError("metadata key is required").
			Mark(ierr.ErrValidation)
	}
	if chunkSize <= 2 {
		chunkSize = DefaultChunkSize
	}

	var chunks []string
	var b strings.Builder
	b.WriteByte('[')
	for _, rule := range rules {
		encoded, err := fitRule(rule, chunkSize-2)
		if err != nil {
			return nil, err
		}

		if b.Len() > 1 && b.Len()+1+len(encoded)+1 > chunkSize {
			b.WriteByte(']')
			chunks = append(chunks, b.String())
			b.Reset()
			b.WriteByte('[')
		}
		if b.Len() > 1 {
			b.WriteByte(',')
		}
		b.Write(encoded)
	}
	b.WriteByte(']')
	chunks = append(chunks, b.String())

	md := make(map[string]string, len(chunks))
	for i, chunk := range chunks {
		md[ChunkKey(name, i)] = chunk
	}
	return md, nil
}

// fitRule encodes rule within limit bytes, dropping trailing runes of the city
// until it fits. Windows are rebuilt from the season fields alone.
func fitRule(rule Rule, limit int) ([]byte, error) {
	city := []rune(rule.City)
	for {
		rule.City = string(city)
		encoded, err := json.Marshal(rule)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to encode address rules").
				Mark(ierr.ErrSystem)
		}
		if len(encoded) <= limit {
			return encoded, nil
		}
		if len(city) == 0 {
			return nil, ierr.NewErrorf("encoded rule takes %d bytes, chunk limit is %d", len(encoded), limit).
				WithHint("Address details are too long to store").
				WithReportableDetails(map[string]any{
					"zip":   rule.Zip,
					"limit": limit,
				}).
				Mark(ierr.ErrValidation)
		}
		city = city[:len(city)-1]
	}
}

// Decode reads back every chunk written by Encode, in order. Chunks that fail
// to parse are skipped and reported as MalformedChunk errors.
func Decode(name string, md map[string]string) ([]Rule, []error) {
	keys := ChunkKeys(name, md)

	var rules []Rule
	var malformed []error
	for _, key := range keys {
		var chunk []Rule
		if err := json.Unmarshal([]byte(md[key]), &chunk); err != nil {
			malformed = append(malformed, ierr.WithError(err).
				WithMessage(fmt.Sprintf("metadata key %s", key)).
				WithReportableDetails(map[string]any{
					"key": key,
				}).
				Mark(ierr.ErrMalformedChunk))
			continue
		}
		rules = append(rules, chunk...)
	}
	return rules, malformed
}

// ChunkKey returns the metadata key of the i-th chunk
func ChunkKey(name string, i int) string {
	if i == 0 {
		return name
	}
	return name + "_" + strconv.Itoa(i)
}

// ChunkKeys returns the chunk keys present in md, unsuffixed key first and
// the rest in numeric suffix order
func ChunkKeys(name string, md map[string]string) []string {
	type indexed struct {
		key string
		n   int
	}

	var found []indexed
	for key := range md {
		if n, ok := chunkIndex(name, key); ok {
			found = append(found, indexed{key: key, n: n})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].n < found[j].n
	})

	keys := make([]string, len(found))
	for i, f := range found {
		keys[i] = f.key
	}
	return keys
}

func chunkIndex(name, key string) (int, bool) {
	if key == name {
		return 0, true
	}
	suffix, ok := strings.CutPrefix(key, name+"_")
	if !ok || suffix == "" {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
