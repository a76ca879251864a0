package linker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kekemui/steam-linker/internal/apptype"
	"github.com/kekemui/steam-linker/internal/library"
	"github.com/kekemui/steam-linker/internal/linktree"
	"github.com/kekemui/steam-linker/internal/logging"
	"github.com/kekemui/steam-linker/internal/metadata"
	"github.com/kekemui/steam-linker/internal/pkgmodel"
)

// Options 汇总 Linker 的依赖，所有依赖均显式注入。
type Options struct {
	Roots       []library.Root
	Scanner     library.Scanner
	Resolver    *metadata.Resolver
	Builder     *linktree.Builder
	Kinds       apptype.Set
	Parallel    bool
	MaxParallel int
	Logger      *logrus.Logger
	RunID       string
}

// Linker 负责一次完整的 扫描 → 解析 → 建模 → 链接 流程。
type Linker struct {
	opts Options
}

// rootResult 是单个库目录前三个阶段的产出。
type rootResult struct {
	scanned  int
	packages []pkgmodel.Package
	failures []Failure
}

// New 校验必需依赖并填充默认值。
func New(opts Options) (*Linker, error) {
	if opts.Scanner == nil {
		return nil, errors.New("scanner is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.Builder == nil {
		return nil, errors.New("link tree builder is required")
	}
	if opts.Kinds == nil {
		opts.Kinds = apptype.NewSet()
	}
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Linker{opts: opts}, nil
}

// Run 执行一次完整流程。单个库目录或应用的失败只记入 Summary；
// 仅当 ctx 被取消时返回错误。
func (l *Linker) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: l.opts.RunID, Roots: len(l.opts.Roots)}
	logger := l.opts.Logger.WithField("run_id", l.opts.RunID)

	l.opts.Resolver.BeginCycle()
	results, err := l.collect(ctx)
	if err != nil {
		return summary, err
	}

	var packages []pkgmodel.Package
	for _, result := range results {
		summary.Scanned += result.scanned
		summary.Failures = append(summary.Failures, result.failures...)
		packages = append(packages, result.packages...)
	}
	summary.Packages = len(packages)

	for _, pkg := range packages {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := l.opts.Builder.Materialize(pkg)
		switch outcome {
		case linktree.Created:
			summary.Created++
		case linktree.AlreadyPresent:
			summary.AlreadyPresent++
		}
		if err != nil {
			fields := logging.PackageFields("materialize", pkg.ID, pkg.Name, pkg.InstallDir)
			logger.WithFields(fields).WithError(err).Warn("link tree entry failed")
			summary.Failures = append(summary.Failures, Failure{
				Stage: StageLink,
				Root:  pkg.Root.Base,
				AppID: pkg.ID,
				Name:  pkg.Name,
				Err:   err,
			})
		}
	}

	logger.WithFields(logrus.Fields{
		"action":          "summary",
		"roots":           summary.Roots,
		"scanned":         summary.Scanned,
		"packages":        summary.Packages,
		"created":         summary.Created,
		"already_present": summary.AlreadyPresent,
		"failures":        len(summary.Failures),
	}).Info("link pass finished")
	return summary, nil
}

// collect 处理所有库目录，Parallel 时按 MaxParallel 并发；结果保持库目录顺序。
func (l *Linker) collect(ctx context.Context) ([]rootResult, error) {
	results := make([]rootResult, len(l.opts.Roots))
	if !l.opts.Parallel {
		for i, root := range l.opts.Roots {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = l.processRoot(ctx, root)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.MaxParallel)
	for i, root := range l.opts.Roots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = l.processRoot(gctx, root)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

func (l *Linker) processRoot(ctx context.Context, root library.Root) rootResult {
	var result rootResult
	logger := l.opts.Logger.WithField("run_id", l.opts.RunID)
	fields := logging.RootFields("scan", root.Base)

	ids, err := l.opts.Scanner.List(root)
	if err != nil {
		logger.WithFields(fields).WithError(err).Warn("library scan failed")
		result.failures = append(result.failures, Failure{Stage: StageScan, Root: root.Base, Err: err})
		return result
	}
	result.scanned = len(ids)
	if len(ids) == 0 {
		logger.WithFields(fields).Info("library has no installed apps")
		return result
	}

	docs, stats, err := l.opts.Resolver.Resolve(ctx, ids)
	fields["action"] = "resolve"
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("metadata resolve failed")
		result.failures = append(result.failures, Failure{
			Stage: StageResolve,
			Root:  root.Base,
			Err:   fmt.Errorf("resolve %d apps: %w", len(ids), err),
		})
		return result
	}
	logger.WithFields(fields).WithFields(logrus.Fields{
		"requested":      stats.Requested,
		"hits":           stats.Hits,
		"fetched":        stats.Fetched,
		"write_failures": stats.WriteFailures,
	}).Info("metadata resolved")

	packages, errs := pkgmodel.Build(root, docs, l.opts.Kinds)
	for _, err := range errs {
		failure := Failure{Stage: StageModel, Root: root.Base, Err: err}
		var malformed *pkgmodel.MalformedError
		if errors.As(err, &malformed) {
			failure.AppID = malformed.AppID
		}
		logger.WithFields(logging.RootFields("build", root.Base)).WithError(err).Warn("metadata malformed")
		result.failures = append(result.failures, failure)
	}
	result.packages = packages
	return result
}
