package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// gnuArchiver implements Archiver by shelling out to ar, mirroring the
// Library.BuildSteps ar invocation in daedaleanai-dbt's cc.go.
type gnuArchiver struct {
	bin string
}

// NewArchiver constructs an Archiver for the named ar-compatible binary.
func NewArchiver(bin string) Archiver {
	return &gnuArchiver{bin: bin}
}

func (a *gnuArchiver) Archive(ctx context.Context, objs []string, out string, useResponseFile bool, logPath string) (int, error) {
	args := []string{"rcs", out}

	if useResponseFile {
		rspPath := out + ".rsp"
		content := ""
		for _, o := range objs {
			content += o + "\n"
		}
		if err := os.WriteFile(rspPath, []byte(content), 0o644); err != nil {
			return -1, fmt.Errorf("writing response file %s: %w", rspPath, err)
		}
		args = append(args, "@"+filepath.Base(rspPath))
	} else {
		args = append(args, objs...)
	}

	return runTool(ctx, a.bin, args, logPath)
}
