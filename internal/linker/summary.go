package linker

import (
	"fmt"
	"strings"
)

// Stage 标识失败发生在哪个阶段。
type Stage string

const (
	StageScan    Stage = "scan"
	StageResolve Stage = "resolve"
	StageModel   Stage = "model"
	StageLink    Stage = "link"
)

// Failure 记录一次被隔离的失败；AppID 为 0 表示整个库目录级别的失败。
type Failure struct {
	Stage Stage
	Root  string
	AppID int
	Name  string
	Err   error
}

func (f Failure) String() string {
	target := f.Root
	if f.AppID != 0 {
		target = fmt.Sprintf("%s appid=%d", target, f.AppID)
	}
	if f.Name != "" {
		target = fmt.Sprintf("%s (%s)", target, f.Name)
	}
	return fmt.Sprintf("[%s] %s: %v", f.Stage, target, f.Err)
}

// Summary 汇总一次运行的结果。
type Summary struct {
	RunID          string
	Roots          int
	Scanned        int
	Packages       int
	Created        int
	AlreadyPresent int
	Failures       []Failure
}

// Failed 表示本次运行是否存在任何失败。
func (s Summary) Failed() bool {
	return len(s.Failures) > 0
}

// Report 输出面向终端的摘要文本。
func (s Summary) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "roots: %d, apps scanned: %d, packages: %d\n", s.Roots, s.Scanned, s.Packages)
	fmt.Fprintf(&sb, "created: %d, already present: %d, failures: %d\n", s.Created, s.AlreadyPresent, len(s.Failures))
	for _, failure := range s.Failures {
		sb.WriteString("  ")
		sb.WriteString(failure.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
