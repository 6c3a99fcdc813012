// Package processor runs one discovery round: validate every marked
// implementation, generate builders and contract declarations, then merge
// the builder identities into the manifests.
package processor

import (
	"context"
	"log/slog"
	"sort"

	"github.com/sghaida/spi/internal/codegen"
	"github.com/sghaida/spi/internal/merge"
	"github.com/sghaida/spi/internal/model"
	"github.com/sghaida/spi/internal/validate"
)

// Processor runs rounds. It is not safe for concurrent use; rounds are
// processed one at a time.
type Processor struct {
	sink   Sink
	merger *merge.Merger
	log    *slog.Logger
}

// New returns a processor writing sources to sink and manifests through merger.
func New(sink Sink, merger *merge.Merger, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Processor{sink: sink, merger: merger, log: log}
}

// Report summarizes a processed round.
type Report struct {
	// Sources lists the generated files whose content changed.
	Sources []string

	// Unchanged lists generated files that already had the rendered content.
	Unchanged []string

	// Manifests holds one result per contract touched by the round, sorted by contract.
	Manifests []merge.Result

	Warnings   []model.Diagnostic
	Candidates int
}

// Process runs one round. When validation fails nothing is written and the
// *validate.Error is returned with the report's warnings filled in.
func (p *Processor) Process(ctx context.Context, round model.Round) (Report, error) {
	var rep Report

	res, err := validate.Validate(round.Implementations)
	for _, w := range res.Warnings {
		p.log.Warn(w.Message, "rule", string(w.Rule), "pos", w.Pos.String())
	}
	rep.Warnings = res.Warnings
	if err != nil {
		return rep, err
	}
	rep.Candidates = len(res.Candidates)

	var files []codegen.File
	for _, c := range res.Candidates {
		f, err := codegen.Builder(c)
		if err != nil {
			return rep, err
		}
		files = append(files, f)
	}
	for _, pkg := range round.Packages {
		if len(pkg.Contracts) == 0 {
			continue
		}
		f, err := codegen.Contracts(pkg)
		if err != nil {
			return rep, err
		}
		files = append(files, f)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		changed, err := p.sink.Write(f)
		if err != nil {
			return rep, err
		}
		if changed {
			rep.Sources = append(rep.Sources, f.Path())
			p.log.Info("generated", "file", f.Path())
		} else {
			rep.Unchanged = append(rep.Unchanged, f.Path())
			p.log.Debug("generated file unchanged", "file", f.Path())
		}
	}

	byContract := map[string][]string{}
	for _, c := range res.Candidates {
		for _, k := range c.Contracts {
			id := k.Identity()
			byContract[id] = append(byContract[id], c.Identity())
		}
	}
	contracts := make([]string, 0, len(byContract))
	for id := range byContract {
		contracts = append(contracts, id)
	}
	sort.Strings(contracts)

	for _, id := range contracts {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		mr, err := p.merger.Merge(id, byContract[id])
		if err != nil {
			return rep, err
		}
		rep.Manifests = append(rep.Manifests, mr)
		if mr.Written {
			p.log.Info("manifest updated", "contract", id, "path", mr.Path, "added", mr.Added)
		}
	}

	p.log.Debug("round complete",
		"candidates", rep.Candidates,
		"sources", len(rep.Sources),
		"manifests", len(rep.Manifests),
		"warnings", len(rep.Warnings))
	return rep, nil
}
