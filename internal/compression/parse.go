package compression

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// stripCodeFence removes a surrounding markdown code fence some models add
// around JSON even in JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseJSON returns the decoded document or false when raw is not valid JSON.
func parseJSON(raw string) (gjson.Result, bool) {
	raw = stripCodeFence(raw)
	if raw == "" || !gjson.Valid(raw) {
		return gjson.Result{}, false
	}
	return gjson.Parse(raw), true
}

// resolveIndices maps index values onto ids. Negative, fractional,
// non-numeric and out-of-range entries are dropped and counted.
func resolveIndices(indices gjson.Result, ids []string) (resolved []string, dropped int) {
	for _, v := range indices.Array() {
		if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
			dropped++
			continue
		}
		i := v.Int()
		if i < 0 || i >= int64(len(ids)) {
			dropped++
			continue
		}
		resolved = append(resolved, ids[i])
	}
	return resolved, dropped
}

// factRecords locates the array of fact records in a response: a bare array,
// the "facts" member of an object, or else the first array-valued member.
func factRecords(doc gjson.Result) (gjson.Result, bool) {
	if doc.IsArray() {
		return doc, true
	}
	if !doc.IsObject() {
		return gjson.Result{}, false
	}
	if facts := doc.Get("facts"); facts.IsArray() {
		return facts, true
	}

	var found gjson.Result
	doc.ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() {
			found = value
			return false
		}
		return true
	})
	return found, found.IsArray()
}
