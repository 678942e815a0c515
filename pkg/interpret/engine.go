// Package interpret turns free-text operator commands into structured
// directives: an intent, a target module and corrected entity values.
package interpret

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-command/pkg/guard"
	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
	"github.com/ekaya-inc/ekaya-command/pkg/nlp"
	"github.com/ekaya-inc/ekaya-command/pkg/synonyms"
)

// SnapshotSource publishes the current lexicon. *lexicon.Cache implements it.
type SnapshotSource interface {
	Current() *lexicon.Snapshot
}

// Observer receives per-command outcomes, typically for metrics.
type Observer interface {
	CommandInterpreted(intent Intent, module string, duration time.Duration)
	EntityUnmatched(label string)
	EntityRejected(label string)
}

// Options holds matching thresholds and optional collaborators.
type Options struct {
	FuzzyCutoff         int     // 0-100
	SynonymThreshold    float64 // 0-1
	SemanticThreshold   float64 // 0-1
	ModuleNameThreshold float64 // 0-1

	// Similarity enables semantic module matching when set.
	Similarity nlp.Similarity
	Observer   Observer
}

// DefaultOptions returns the standard thresholds with no semantic matching.
func DefaultOptions() Options {
	return Options{
		FuzzyCutoff:         60,
		SynonymThreshold:    0.8,
		SemanticThreshold:   0.7,
		ModuleNameThreshold: 0.8,
	}
}

type restrictedSynonyms struct {
	snapshotID string
	synonyms   *synonyms.Map
}

// Engine interprets commands against the current lexicon snapshot. It keeps
// no per-request state and is safe for concurrent use.
type Engine struct {
	lexicon   SnapshotSource
	parser    nlp.Parser
	synonyms  *synonyms.Map
	resolver  *ModuleResolver
	corrector *Corrector
	observer  Observer
	logger    *zap.Logger

	// synonyms restricted to the modules of the last snapshot seen
	restricted atomic.Pointer[restrictedSynonyms]
}

// NewEngine creates an engine. A nil synonym map means no synonyms.
func NewEngine(lex SnapshotSource, parser nlp.Parser, syn *synonyms.Map, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if syn == nil {
		syn = synonyms.Empty()
	}
	logger = logger.Named("interpret")
	return &Engine{
		lexicon:   lex,
		parser:    parser,
		synonyms:  syn,
		resolver:  NewModuleResolver(DefaultModuleStrategies(opts, logger)...),
		corrector: NewCorrector(opts.FuzzyCutoff),
		observer:  opts.Observer,
		logger:    logger,
	}
}

// Interpret parses text and returns the structured command. A blank command
// returns apperrors.ErrNoCommand; parser failures are returned wrapped.
func (e *Engine) Interpret(ctx context.Context, text string) (*Result, error) {
	start := time.Now()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrNoCommand
	}

	snap := e.lexicon.Current()
	if snap == nil {
		return nil, apperrors.ErrNoSnapshot
	}

	doc, err := e.parser.Parse(ctx, text, snap.Patterns)
	if err != nil {
		if errors.Is(err, apperrors.ErrParserUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("parse command: %w", err)
	}

	intent := ClassifyIntent(text)
	extraction := Extract(doc, snap)

	resolution := Resolution{Module: extraction.Module, Strategy: "module_span"}
	if resolution.Module == "" {
		resolution = e.resolver.Resolve(ctx, text, snap.ModuleNames(), e.synonymsFor(snap))
	}

	result := &Result{
		Command: ParsedCommand{
			Message:  text,
			Intent:   intent,
			Module:   resolution.Module,
			Entities: make(map[string]EntityValue),
		},
		ModuleStrategy: resolution.Strategy,
		SnapshotID:     snap.ID,
	}

	for _, ent := range extraction.Entities {
		if rejected := guard.CheckEntityValue(ent.Label, ent.Text); rejected != nil {
			e.logger.Warn("Rejected entity value",
				zap.String("label", ent.Label),
				zap.String("fingerprint", rejected.Fingerprint))
			result.Rejected = append(result.Rejected, RejectedEntity{
				Label:       ent.Label,
				Text:        ent.Text,
				Fingerprint: rejected.Fingerprint,
			})
			if e.observer != nil {
				e.observer.EntityRejected(ent.Label)
			}
			continue
		}

		c := e.corrector.Correct(snap, resolution.Module, ent.Label, ent.Text)
		if !c.Matched {
			e.logger.Info("Entity unmatched",
				zap.String("label", ent.Label),
				zap.String("text", ent.Text),
				zap.String("module", resolution.Module))
			result.Unmatched = append(result.Unmatched, UnmatchedEntity{Label: ent.Label, Text: ent.Text})
			if e.observer != nil {
				e.observer.EntityUnmatched(ent.Label)
			}
		}
		result.Command.Entities[ent.Label] = result.Command.Entities[ent.Label].add(c.Value)
	}

	elapsed := time.Since(start)
	if e.observer != nil {
		e.observer.CommandInterpreted(intent, resolution.Module, elapsed)
	}
	e.logger.Debug("Command interpreted",
		zap.String("intent", string(intent)),
		zap.String("module", resolution.Module),
		zap.String("strategy", resolution.Strategy),
		zap.Int("entities", len(result.Command.Entities)),
		zap.String("snapshot_id", snap.ID),
		zap.Duration("elapsed", elapsed))

	return result, nil
}

// synonymsFor returns the synonym map restricted to the snapshot's modules,
// computing it once per snapshot.
func (e *Engine) synonymsFor(snap *lexicon.Snapshot) *synonyms.Map {
	if r := e.restricted.Load(); r != nil && r.snapshotID == snap.ID {
		return r.synonyms
	}
	r := &restrictedSynonyms{snapshotID: snap.ID, synonyms: e.synonyms.Restrict(snap.ModuleNames())}
	e.restricted.Store(r)
	return r.synonyms
}
