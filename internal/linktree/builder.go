// Package linktree materializes one directory per package under a single
// output root, holding symlinks to the package's install files and its
// compatdata prefix. A destination that already exists as a directory is
// never touched again.
package linktree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kekemui/steam-linker/internal/logging"
	"github.com/kekemui/steam-linker/internal/pkgmodel"
)

// 链接树内两个约定的条目名称。
const (
	RealLinkName = "gamedata"
	AuxLinkName  = "compatdata"
)

// Outcome 描述一次 Materialize 的结果。
type Outcome int

const (
	Created Outcome = iota + 1
	AlreadyPresent
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyPresent:
		return "already_present"
	default:
		return "unknown"
	}
}

// ErrIncomplete 表示目标目录已存在但缺少应有的链接；仅在开启 VerifyLinks 时返回。
var ErrIncomplete = errors.New("link tree entry incomplete")

// PartialError 表示目录已创建但链接失败，目录保持原样等待人工处理。
type PartialError struct {
	Dest string
	Link string
	Err  error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partial link tree at %s: link %s: %v", e.Dest, e.Link, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// Options 控制 Builder 行为。
type Options struct {
	OutputRoot string
	// VerifyLinks 开启后，已存在的目录还需包含应有的链接才算完整；
	// 不完整时依旧不做任何修改，只返回 ErrIncomplete。
	VerifyLinks bool
	Logger      *logrus.Logger
}

// Builder 在 OutputRoot 下为每个 Package 建立链接目录，可安全重复执行。
type Builder struct {
	root   string
	verify bool
	logger *logrus.Logger
}

// NewBuilder 校验输出根目录必须是绝对路径。
func NewBuilder(opts Options) (*Builder, error) {
	if opts.OutputRoot == "" || !filepath.IsAbs(opts.OutputRoot) {
		return nil, fmt.Errorf("output root must be an absolute path: %q", opts.OutputRoot)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Builder{
		root:   filepath.Clean(opts.OutputRoot),
		verify: opts.VerifyLinks,
		logger: logger,
	}, nil
}

// Destination 返回 pkg 在链接树中的目录。
func (b *Builder) Destination(pkg pkgmodel.Package) (string, error) {
	dir := pkg.InstallDir
	if strings.TrimSpace(dir) == "" || filepath.IsAbs(dir) {
		return "", fmt.Errorf("appid %d: invalid install dir %q", pkg.ID, dir)
	}
	dest := filepath.Join(b.root, dir)
	rel, err := filepath.Rel(b.root, dest)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("appid %d: install dir %q escapes output root", pkg.ID, dir)
	}
	return dest, nil
}

// Materialize 为 pkg 创建链接目录。目录已存在时不做任何修改并返回 AlreadyPresent；
// 目录以非目录形式存在、或在检查与创建之间被并发创建时返回错误。
func (b *Builder) Materialize(pkg pkgmodel.Package) (Outcome, error) {
	dest, err := b.Destination(pkg)
	if err != nil {
		return 0, err
	}
	fields := logging.PackageFields("materialize", pkg.ID, pkg.Name, pkg.InstallDir)
	fields["dest"] = dest

	info, err := os.Stat(dest)
	switch {
	case err == nil && info.IsDir():
		b.logger.WithFields(fields).Debug("link tree entry already present")
		if b.verify {
			if err := verifyLinks(dest, pkg); err != nil {
				return AlreadyPresent, err
			}
		}
		return AlreadyPresent, nil
	case err == nil:
		return 0, fmt.Errorf("appid %d: %s exists and is not a directory", pkg.ID, dest)
	case !errors.Is(err, fs.ErrNotExist):
		return 0, fmt.Errorf("appid %d: stat %s: %w", pkg.ID, dest, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("appid %d: create parent of %s: %w", pkg.ID, dest, err)
	}
	// Mkdir 而不是 MkdirAll：目录若在检查之后出现必须报错。
	if err := os.Mkdir(dest, 0o755); err != nil {
		return 0, fmt.Errorf("appid %d: create %s: %w", pkg.ID, dest, err)
	}

	if err := os.Symlink(pkg.RealPath, filepath.Join(dest, RealLinkName)); err != nil {
		return 0, &PartialError{Dest: dest, Link: RealLinkName, Err: err}
	}
	if pkg.HasAux() {
		if err := os.Symlink(pkg.AuxPath, filepath.Join(dest, AuxLinkName)); err != nil {
			return 0, &PartialError{Dest: dest, Link: AuxLinkName, Err: err}
		}
	}

	fields["compatdata"] = pkg.HasAux()
	b.logger.WithFields(fields).Info("link tree entry created")
	return Created, nil
}

func verifyLinks(dest string, pkg pkgmodel.Package) error {
	expected := map[string]string{RealLinkName: pkg.RealPath}
	if pkg.HasAux() {
		expected[AuxLinkName] = pkg.AuxPath
	}
	var missing []string
	for _, name := range []string{RealLinkName, AuxLinkName} {
		target, want := expected[name]
		if !want {
			continue
		}
		got, err := os.Readlink(filepath.Join(dest, name))
		if err != nil || got != target {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing %s", ErrIncomplete, dest, strings.Join(missing, ", "))
	}
	return nil
}
