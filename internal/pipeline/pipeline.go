// Package pipeline runs a full validation: structural reconciliation, size
// checks, text extraction, translation matching and evaluation.
//
// Text extraction runs in two phases. Reference images are read first; target
// images are read only for banners whose reference text matched a spreadsheet
// row. Calls fan out across a bounded worker pool and results are stored by
// index, so the report does not depend on completion order.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bannercheck/internal/dimension"
	"bannercheck/internal/evaluate"
	"bannercheck/internal/inventory"
	"bannercheck/internal/logger"
	"bannercheck/internal/matcher"
	"bannercheck/internal/ocr"
	"bannercheck/internal/reconcile"
	"bannercheck/internal/report"
	"bannercheck/pkg/models"
)

// Extractor reads the text of one image file. It never fails; failures come
// back as a Result with Failed set.
type Extractor interface {
	ExtractFile(ctx context.Context, path, locale string) ocr.Result
	Backend() string
}

// Options configure a run
type Options struct {
	Scale       int
	Basis       dimension.Basis
	Concurrency int
	SkipText    bool
	Evaluate    evaluate.Options
}

// Input is everything a run reads. Both the inventory and the rows are
// read-only for the duration of the run.
type Input struct {
	Inventory *inventory.Inventory
	Rows      []models.TranslationRow
	Extractor Extractor
	RunID     string
}

type job struct {
	banner models.BannerKey
	locale string
	path   string
}

type pairKey struct {
	banner models.BannerKey
	locale string
}

// Run validates every (banner, locale) pair of the inventory. Per-pair failures
// become report statuses. Context cancellation and rejected backend credentials
// abort the run.
func Run(ctx context.Context, in Input, opts Options) (*report.Report, error) {
	const op = "pipeline.Run"

	if in.RunID == "" {
		in.RunID = uuid.NewString()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	inv := in.Inventory
	textOn := !opts.SkipText && in.Extractor != nil

	log := logger.WithRunID(in.RunID).With().Str("component", "pipeline").Logger()
	log.Info().
		Str("root", inv.Root).
		Str("reference", inv.Reference).
		Int("locales", len(inv.Locales)).
		Int("banners", len(inv.Banners)).
		Int("rows", len(in.Rows)).
		Bool("text_check", textOn).
		Msg("Starting validation run")

	rep := &report.Report{
		RunID:     in.RunID,
		StartedAt: time.Now(),
		Reference: inv.Reference,
		Locales:   inv.Locales,
	}

	presence := reconcile.Reconcile(inv)
	validator := dimension.NewValidator(opts.Scale, opts.Basis)
	rep.Scale, rep.Basis = validator.Scale, string(validator.Basis)
	checks := validator.Validate(inv, presence)

	texts := make(map[pairKey]ocr.Result)
	matches := make(map[models.BannerKey]matcher.Result)

	if textOn {
		rep.Backend = in.Extractor.Backend()
		m := matcher.New(in.Rows)

		refJobs := make([]job, 0, len(inv.Banners))
		for _, key := range inv.Banners {
			refJobs = append(refJobs, job{banner: key, locale: inv.Reference, path: inv.Files[inv.Reference][key]})
		}
		if err := extractAll(ctx, in.Extractor, refJobs, opts.Concurrency, texts); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		var targetJobs []job
		for _, key := range inv.Banners {
			res := m.Match(texts[pairKey{key, inv.Reference}].Text)
			matches[key] = res
			if !res.Matched() {
				log.Warn().Str("banner", string(key)).Msg("No spreadsheet row matches banner text")
				continue
			}
			for _, locale := range inv.Targets() {
				if entry, ok := presence.Lookup(key, locale); ok && entry.Found {
					targetJobs = append(targetJobs, job{banner: key, locale: locale, path: entry.Path})
				}
			}
		}
		if err := extractAll(ctx, in.Extractor, targetJobs, opts.Concurrency, texts); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	for _, c := range checks {
		key := pairKey{c.Banner, c.Locale}
		entry, _ := presence.Lookup(c.Banner, c.Locale)
		row := report.Row{
			Banner:      c.Banner,
			Locale:      c.Locale,
			Found:       entry.Found,
			Declared:    c.Declared.String(),
			Expected:    c.Expected.String(),
			Reference:   c.Reference.String(),
			Actual:      c.Actual.String(),
			SizeStatus:  c.Status,
			ScaleStatus: c.ScaleStatus,
			SizeError:   c.Error,
		}

		text, extracted := texts[key]
		if extracted {
			row.ExtractedText = text.Text.String()
			if text.Failed {
				rep.OCRFailures++
				row.Warnings = append(row.Warnings, "text extraction failed: "+text.Reason)
			}
		}

		match := matches[c.Banner]
		switch {
		case !entry.Found:
			row.Verdict = models.Skipped(models.ReasonFileNotFound)
		case !textOn:
			row.Verdict = models.Skipped(models.ReasonTextCheckOff)
		case !match.Matched():
			row.Verdict = models.Skipped(models.ReasonNoMatchingRow)
		default:
			row.MatchedRows = match.Refs()
			row.ExpectedText = match.Expected(c.Locale)
			outcome := evaluate.Evaluate(row.ExpectedText, text.Text, opts.Evaluate)
			row.Verdict = outcome.Verdict
			row.Warnings = append(row.Warnings, outcome.Warnings...)
		}
		rep.Rows = append(rep.Rows, row)
	}

	rep.FinishedAt = time.Now()
	rep.Finalize()

	log.Info().
		Int("pairs", rep.Summary.Pairs).
		Int("pass", rep.Summary.Pass).
		Int("fail", rep.Summary.Fail).
		Int("skipped", rep.Summary.Skipped).
		Int("missing", rep.Summary.Missing).
		Int("size_failed", rep.Summary.SizeFailed).
		Int("ocr_failures", rep.Summary.OCRFailures).
		Dur("duration", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("Validation run completed")

	return rep, nil
}

// extractAll runs the jobs on at most concurrency workers and stores each
// result under its pair. Results are written by index, then merged.
func extractAll(ctx context.Context, ext Extractor, jobs []job, concurrency int, into map[pairKey]ocr.Result) error {
	if len(jobs) == 0 {
		return nil
	}

	log := logger.WithComponent("pipeline")
	log.Info().Int("images", len(jobs)).Int("workers", concurrency).Msg("Extracting text")

	results := make([]ocr.Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ext.ExtractFile(gctx, j.path, j.locale)
			if results[i].Fatal() {
				return fmt.Errorf("extract %s: %w", j.path, results[i].Err)
			}
			logResult(log, j, results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, j := range jobs {
		into[pairKey{j.banner, j.locale}] = results[i]
	}
	return nil
}

func logResult(log zerolog.Logger, j job, res ocr.Result) {
	if res.Failed {
		return // the adapter already logged the failure
	}
	log.Debug().
		Str("banner", string(j.banner)).
		Str("locale", j.locale).
		Int("attempts", res.Attempts).
		Int("fragments", len(res.Text.Lines())).
		Msg("Text extracted")
}
