package runtime

import (
	"context"
	"errors"
	"sort"
	"strings"

	"campaignflow/internal/agent"

	"go.uber.org/zap"
)

var keywordModifiers = []string{
	"",
	"near me",
	"company",
	"services",
	"cost",
	"best",
	"24/7",
	"local",
	"emergency",
	"professional",
	"free",
	"jobs",
	"training",
}

var defaultNegativeKeywords = []string{"free", "jobs", "training", "course", "diy", "salary", "cheap"}

// 各匹配方式相对 exact 的出价系数
var matchTypeBidFactor = map[string]float64{
	"exact":  1.0,
	"phrase": 0.85,
	"broad":  0.7,
}

// KeywordAgent 关键词扩展与过滤
type KeywordAgent struct {
	state     *agentState
	deps      Deps
	negatives []string
	logger    *zap.Logger
}

// NewKeywordAgent 创建关键词 Agent
func NewKeywordAgent(deps Deps) *KeywordAgent {
	deps = deps.withDefaults()
	return &KeywordAgent{
		state:     newAgentState(agent.NameKeywordManager, deps.Clock),
		deps:      deps,
		negatives: append([]string(nil), defaultNegativeKeywords...),
		logger:    deps.Logger.Named(agent.NameKeywordManager),
	}
}

// Optimize 用修饰词扩展种子关键词，过滤否定词后按相关度分桶
func (a *KeywordAgent) Optimize(ctx context.Context, seedKeywords []string) (*agent.KeywordResult, error) {
	var result *agent.KeywordResult
	err := a.state.track("optimize_keywords", func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(seedKeywords) == 0 {
			return errors.New("no seed keywords provided")
		}

		candidates, filtered := a.expand(seedKeywords)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].RelevanceScore > candidates[j].RelevanceScore
		})

		buckets := agent.KeywordBuckets{
			Exact:  withMatchType(candidates, "exact"),
			Phrase: withMatchType(candidates, "phrase"),
			Broad:  withMatchType(candidates, "broad"),
		}
		result = &agent.KeywordResult{
			Keywords:         buckets,
			NegativeKeywords: append([]string(nil), a.negatives...),
			Summary:          summarizeKeywords(buckets, len(a.negatives), filtered),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.state.add("keywords_processed", result.Summary.TotalKeywords)
	a.logger.Debug("关键词优化完成",
		zap.Int("exact", result.Summary.ExactCount),
		zap.Int("filtered", result.Summary.FilteredKeywords),
	)
	return result, nil
}

// Status 状态快照
func (a *KeywordAgent) Status() agent.StatusSnapshot {
	return a.state.snapshot()
}

func (a *KeywordAgent) expand(seeds []string) ([]agent.Keyword, int) {
	seen := make(map[string]struct{})
	var out []agent.Keyword
	filtered := 0

	for _, seed := range seeds {
		seed = strings.ToLower(strings.TrimSpace(seed))
		if seed == "" {
			continue
		}
		for _, mod := range keywordModifiers {
			text := strings.TrimSpace(seed + " " + mod)
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
			if a.isNegative(text) {
				filtered++
				continue
			}
			relevance := 0.95
			if mod != "" {
				relevance = round2(between(a.deps.Source, 0.5, 0.95))
			}
			out = append(out, agent.Keyword{
				Text:           text,
				SearchVolume:   100 + a.deps.Source.Intn(4900),
				Competition:    round2(between(a.deps.Source, 0.1, 1.0)),
				SuggestedBid:   round2(between(a.deps.Source, 1.5, 8.0)),
				RelevanceScore: relevance,
			})
		}
	}
	return out, filtered
}

func (a *KeywordAgent) isNegative(text string) bool {
	for _, word := range strings.Fields(text) {
		for _, neg := range a.negatives {
			if word == neg {
				return true
			}
		}
	}
	return false
}

func withMatchType(keywords []agent.Keyword, matchType string) []agent.Keyword {
	out := make([]agent.Keyword, len(keywords))
	for i, kw := range keywords {
		kw.MatchType = matchType
		kw.SuggestedBid = round2(kw.SuggestedBid * matchTypeBidFactor[matchType])
		out[i] = kw
	}
	return out
}

func summarizeKeywords(b agent.KeywordBuckets, negatives, filtered int) agent.KeywordSummary {
	total := len(b.Exact) + len(b.Phrase) + len(b.Broad)
	var bidSum float64
	var clicks int
	for _, bucket := range [][]agent.Keyword{b.Exact, b.Phrase, b.Broad} {
		for _, kw := range bucket {
			bidSum += kw.SuggestedBid
			clicks += kw.SearchVolume * 3 / 100
		}
	}
	avg := 0.0
	if total > 0 {
		avg = round2(bidSum / float64(total))
	}
	return agent.KeywordSummary{
		TotalKeywords:    total,
		ExactCount:       len(b.Exact),
		PhraseCount:      len(b.Phrase),
		BroadCount:       len(b.Broad),
		NegativeCount:    negatives,
		AverageBid:       avg,
		EstimatedClicks:  clicks,
		FilteredKeywords: filtered,
	}
}
