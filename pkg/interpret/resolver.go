package interpret

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/fuzzy"
	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
	"github.com/ekaya-inc/ekaya-command/pkg/nlp"
	"github.com/ekaya-inc/ekaya-command/pkg/synonyms"
)

// ResolveInput is what a ModuleStrategy sees of one command.
type ResolveInput struct {
	Text     string        // lower-cased command
	Words    []string      // lower-cased words of the command
	Modules  []string      // known modules in store order
	Synonyms *synonyms.Map // restricted to known modules
}

// ModuleStrategy is one step of module resolution.
type ModuleStrategy interface {
	Name() string
	Resolve(ctx context.Context, in ResolveInput) (string, bool)
}

// Resolution is the outcome of module resolution.
type Resolution struct {
	Module   string `json:"module"`
	Strategy string `json:"strategy"`
}

// ModuleResolver tries its strategies in order and returns the first match,
// or lexicon.GeneralModule when none applies.
type ModuleResolver struct {
	strategies []ModuleStrategy
}

// NewModuleResolver creates a resolver running strategies in the given order.
func NewModuleResolver(strategies ...ModuleStrategy) *ModuleResolver {
	return &ModuleResolver{strategies: strategies}
}

// DefaultModuleStrategies returns the standard resolution order. The semantic
// step is left out when opts.Similarity is nil.
func DefaultModuleStrategies(opts Options, logger *zap.Logger) []ModuleStrategy {
	strategies := []ModuleStrategy{
		DirectSubstring{},
		ExactSynonym{},
		FuzzySynonym{Threshold: opts.SynonymThreshold},
	}
	if opts.Similarity != nil {
		strategies = append(strategies, Semantic{Similarity: opts.Similarity, Threshold: opts.SemanticThreshold, Logger: logger})
	}
	return append(strategies, FuzzyModuleName{Threshold: opts.ModuleNameThreshold})
}

// Resolve picks the module text targets.
func (r *ModuleResolver) Resolve(ctx context.Context, text string, modules []string, syn *synonyms.Map) Resolution {
	if syn == nil {
		syn = synonyms.Empty()
	}
	in := ResolveInput{
		Text:     strings.ToLower(text),
		Words:    lowerWords(text),
		Modules:  modules,
		Synonyms: syn,
	}
	for _, s := range r.strategies {
		if m, ok := s.Resolve(ctx, in); ok {
			return Resolution{Module: m, Strategy: s.Name()}
		}
	}
	return Resolution{Module: lexicon.GeneralModule, Strategy: "general"}
}

// scored is a module with the score a strategy gave it.
type scored struct {
	module string
	score  float64
}

// best returns the winner among candidates: highest score, then longest
// module name, then lexicographically smallest.
func best(cands []scored) (scored, bool) {
	if len(cands) == 0 {
		return scored{}, false
	}
	win := cands[0]
	for _, c := range cands[1:] {
		switch {
		case c.score > win.score:
			win = c
		case c.score < win.score:
		case len(c.module) > len(win.module):
			win = c
		case len(c.module) == len(win.module) && c.module < win.module:
			win = c
		}
	}
	return win, true
}

// DirectSubstring matches module names that occur literally in the command.
type DirectSubstring struct{}

func (DirectSubstring) Name() string { return "direct" }

func (DirectSubstring) Resolve(_ context.Context, in ResolveInput) (string, bool) {
	var cands []scored
	for _, m := range in.Modules {
		if strings.Contains(in.Text, m) {
			cands = append(cands, scored{module: m, score: 1})
		}
	}
	w, ok := best(cands)
	return w.module, ok
}

// ExactSynonym matches the first word of the command that is a synonym.
type ExactSynonym struct{}

func (ExactSynonym) Name() string { return "synonym" }

func (ExactSynonym) Resolve(_ context.Context, in ResolveInput) (string, bool) {
	for _, w := range in.Words {
		if m, ok := in.Synonyms.Lookup(w); ok {
			return m, true
		}
	}
	return "", false
}

// FuzzySynonym matches words within edit similarity Threshold of a synonym.
type FuzzySynonym struct {
	Threshold float64
}

func (FuzzySynonym) Name() string { return "fuzzy_synonym" }

func (s FuzzySynonym) Resolve(_ context.Context, in ResolveInput) (string, bool) {
	var cands []scored
	for _, w := range in.Words {
		for _, alias := range in.Synonyms.Aliases() {
			score := fuzzy.Similarity(w, alias)
			if score < s.Threshold {
				continue
			}
			m, _ := in.Synonyms.Lookup(alias)
			cands = append(cands, scored{module: m, score: score})
		}
	}
	w, ok := best(cands)
	return w.module, ok
}

// Semantic scores the command against each module name with vector similarity
// and accepts the best score above Threshold. Similarity errors skip the step.
type Semantic struct {
	Similarity nlp.Similarity
	Threshold  float64
	Logger     *zap.Logger
}

func (Semantic) Name() string { return "semantic" }

func (s Semantic) Resolve(ctx context.Context, in ResolveInput) (string, bool) {
	if s.Similarity == nil || len(in.Modules) == 0 {
		return "", false
	}
	var cands []scored
	for _, m := range in.Modules {
		score, err := s.Similarity.Similarity(ctx, in.Text, m)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("Semantic module matching unavailable", zap.Error(err))
			}
			return "", false
		}
		if score > s.Threshold {
			cands = append(cands, scored{module: m, score: score})
		}
	}
	w, ok := best(cands)
	return w.module, ok
}

// FuzzyModuleName compares the whole command with each module name.
type FuzzyModuleName struct {
	Threshold float64
}

func (FuzzyModuleName) Name() string { return "fuzzy_module" }

func (s FuzzyModuleName) Resolve(_ context.Context, in ResolveInput) (string, bool) {
	text := strings.Join(in.Words, " ")
	var cands []scored
	for _, m := range in.Modules {
		if score := fuzzy.Similarity(text, m); score >= s.Threshold {
			cands = append(cands, scored{module: m, score: score})
		}
	}
	w, ok := best(cands)
	return w.module, ok
}
