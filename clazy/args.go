package clazy

import (
	"strings"

	"github.com/a-h/clazylsp/config"
)

// Args builds the clazy command line for the given files. The export-fixes
// document is always written to stdout.
func Args(c config.Config, files []string) (args []string) {
	args = append(args, files...)
	args = append(args, "--export-fixes=-")
	if len(c.Checks) > 0 {
		args = append(args, "--checks="+strings.Join(c.Checks, ","))
	}
	if len(c.ExtraArg) > 0 {
		args = append(args, "--extra-arg="+strings.Join(c.ExtraArg, " "))
	}
	if len(c.ExtraArgBefore) > 0 {
		args = append(args, "--extra-arg-before="+strings.Join(c.ExtraArgBefore, " "))
	}
	if c.HeaderFilter != "" {
		args = append(args, "--header-filter="+c.HeaderFilter)
	}
	if c.IgnoreDirs != "" {
		args = append(args, "--ignore-dirs="+c.IgnoreDirs)
	}
	if c.IgnoreIncludedFiles {
		args = append(args, "--ignore-included-files")
	}
	if c.OnlyQt {
		args = append(args, "--only-qt")
	}
	if c.QtDeveloper {
		args = append(args, "--qt-developer")
	}
	if c.VFSOverlay != "" {
		args = append(args, "--vfsoverlay="+c.VFSOverlay)
	}
	if c.VisitImplicitCode {
		args = append(args, "--visit-implicit-code")
	}
	if c.BuildPath != "" {
		args = append(args, "-p", c.BuildPath)
	}
	return args
}
