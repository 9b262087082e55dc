package evidence

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/watchdog/internal/model"
)

var wordToken = regexp.MustCompile(`\w+`)

// keywords returns the distinct lower-cased words longer than three characters
func keywords(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range wordToken.FindAllString(strings.ToLower(text), -1) {
		if len(w) > 3 {
			out[w] = struct{}{}
		}
	}
	return out
}

// Rank orders docs by how many query keywords they contain and returns at
// most k with a non-zero overlap. Ties go to the more authoritative source
// (metadata "authority"), then input order. k <= 0 keeps all.
func Rank(query string, docs []model.Document, k int) []model.Document {
	terms := keywords(query)
	if len(terms) == 0 {
		return nil
	}

	type scored struct {
		doc   model.Document
		score int
	}
	var hits []scored
	for _, d := range docs {
		words := keywords(d.Content)
		n := 0
		for t := range terms {
			if _, ok := words[t]; ok {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, scored{doc: d, score: n})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return Tier(hits[i].doc.Metadata["authority"]).rank() < Tier(hits[j].doc.Metadata["authority"]).rank()
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}

	out := make([]model.Document, len(hits))
	for i, h := range hits {
		doc := h.doc
		meta := make(map[string]string, len(doc.Metadata)+1)
		for key, v := range doc.Metadata {
			meta[key] = v
		}
		meta["overlap"] = strconv.Itoa(h.score)
		doc.Metadata = meta
		out[i] = doc
	}
	return out
}
