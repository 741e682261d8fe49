// Package similarity groups users that post near-duplicate text.
package similarity

import (
	"context"
	"fmt"
	"slices"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/types"
)

// Default analyzer configuration constants.
const (
	DefaultThreshold      = 0.8
	DefaultMinClusterSize = 3
	sampleContentLimit    = 200
	minPosts              = 2
	ctxCheckEvery         = 256

	methodIndexed    = "fingerprint_bucketed_jaccard"
	methodExhaustive = "pairwise_jaccard"
)

// document is one post prepared for comparison.
type document struct {
	userID  string
	content string
	text    string
	words   map[string]struct{}
}

// Analyzer finds groups of posts whose normalized text is identical or whose
// word sets overlap above the threshold.
type Analyzer struct {
	threshold      float64
	minClusterSize int
	exhaustive     bool
}

// New creates a content similarity analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		threshold:      DefaultThreshold,
		minClusterSize: DefaultMinClusterSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze groups posts in collection order. Each post joins at most one
// group; a seed whose candidates span too few users leaves them ungrouped.
func (a *Analyzer) Analyze(ctx context.Context, posts []model.Post) (types.ContentReport, error) {
	report := types.ContentReport{
		StageResult: types.StageResult{Status: types.StatusAnalyzed, Method: a.method()},
		Groups:      []types.SimilarityGroup{},
	}
	if len(posts) < minPosts {
		report.StageResult = types.Insufficient()
		return report, nil
	}

	docs := make([]document, len(posts))
	for i, p := range posts {
		text := Normalize(p.Content)
		docs[i] = document{userID: p.UserID, content: p.Content, text: text, words: WordSet(text)}
	}

	var index map[uint64][]int
	if !a.exhaustive {
		index = buildIndex(docs)
	}

	grouped := make([]bool, len(docs))
	for i := range docs {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return types.ContentReport{}, fmt.Errorf("content similarity: %w", err)
			}
		}
		if grouped[i] {
			continue
		}

		members := []int{i}
		for _, j := range a.candidates(docs, index, i) {
			if grouped[j] {
				continue
			}
			if a.similar(&docs[i], &docs[j]) {
				members = append(members, j)
			}
		}

		users := distinctUsers(docs, members)
		if len(users) < a.minClusterSize {
			continue
		}
		for _, m := range members {
			grouped[m] = true
		}
		report.Groups = append(report.Groups, types.SimilarityGroup{
			Users:         users,
			PostCount:     len(members),
			SampleContent: truncateRunes(docs[i].content, sampleContentLimit),
			UserCount:     len(users),
		})
	}

	report.TotalGroups = len(report.Groups)
	report.PostsCompared = len(docs)
	return report, nil
}

func (a *Analyzer) method() string {
	if a.exhaustive {
		return methodExhaustive
	}
	return methodIndexed
}

// similar reports whether two documents are duplicates at the threshold.
// Empty text is never similar to anything.
func (a *Analyzer) similar(x, y *document) bool {
	if x.text == "" || y.text == "" {
		return false
	}
	if x.text == y.text {
		return true
	}
	return Jaccard(x.words, y.words) > a.threshold
}

// candidates returns the indices after i, ascending, that may be similar to docs[i].
// Pairs with Jaccard above zero share a word, and Jaccard never exceeds the
// ratio of the smaller to the larger set, so both filters are lossless.
func (a *Analyzer) candidates(docs []document, index map[uint64][]int, i int) []int {
	if a.exhaustive {
		out := make([]int, 0, len(docs)-i-1)
		for j := i + 1; j < len(docs); j++ {
			out = append(out, j)
		}
		return out
	}

	seen := make(map[int]struct{})
	for w := range docs[i].words {
		for _, j := range index[fingerprint(w)] {
			if j <= i {
				continue
			}
			if docs[j].text != docs[i].text && !sizesCompatible(len(docs[i].words), len(docs[j].words), a.threshold) {
				continue
			}
			seen[j] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for j := range seen {
		out = append(out, j)
	}
	slices.Sort(out)
	return out
}

func sizesCompatible(n, m int, threshold float64) bool {
	lo, hi := min(n, m), max(n, m)
	return float64(lo)/float64(hi) > threshold
}

// buildIndex maps every word fingerprint to the ascending list of posts containing it.
func buildIndex(docs []document) map[uint64][]int {
	index := make(map[uint64][]int)
	for i := range docs {
		for w := range docs[i].words {
			fp := fingerprint(w)
			index[fp] = append(index[fp], i)
		}
	}
	return index
}

// distinctUsers returns the users of members in first-appearance order.
func distinctUsers(docs []document, members []int) []string {
	seen := make(map[string]struct{}, len(members))
	users := make([]string, 0, len(members))
	for _, m := range members {
		u := docs[m].userID
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		users = append(users, u)
	}
	return users
}
