package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/depsplit/depsplit/closure"
	"github.com/depsplit/depsplit/driver"
	"github.com/depsplit/depsplit/log"
	"github.com/depsplit/depsplit/modpath"
	"github.com/spf13/cobra"
	"golang.org/x/mod/modfile"
)

// allSubmodulesSentinel is the StringSlice value pflag assigns --submodules
// when it's passed with no argument at all.
const allSubmodulesSentinel = "*"

// run builds and executes the root command against args, writing to stdout
// and stderr, and returns the process exit code — spec.md §6's "exit code
// 0 on success; non-zero on loader/extractor fatal error".
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		name             string
		pkg              string
		dir              string
		submodules       []string
		trackImportStack bool
		detectTransitive bool
		showOptional     bool
		fullDepth        bool
		logLevel         int
		indent           int
		parentOnly       bool
		includeTests     bool
	)

	cmd := &cobra.Command{
		Use:   "depsplit",
		Short: "Discover a Go module's third-party dependency closure",
		Long: `depsplit walks a Go module's internal package tree, classifies every
import as standard-library, internal, or third-party, and reports the
third-party closure of a target package (and, optionally, its
sub-packages) — the same question a packaging tool's "extras" split needs
answered, just for Go.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir := dir
			if workDir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				workDir = wd
			}

			root, err := moduleRoot(workDir)
			if err != nil {
				return err
			}

			target := modpath.Name(name)
			if target == "" {
				target = root
			}

			logger := log.New(stderr)
			logger.Level = logLevel

			projCfg, err := loadProjectConfig(workDir)
			if err != nil {
				return err
			}

			opts := driver.Options{
				Package:        modpath.Name(pkg),
				TrackWitnesses: trackImportStack,
				FullDepth:      fullDepth,
				IncludeTests:   includeTests,
				Logger:         logger,
			}
			if parentOnly {
				opts.Policy = closure.ParentOnly
			}
			if projCfg != nil {
				opts.Ignore = projCfg.Ignore
			}

			switch {
			case len(submodules) == 1 && submodules[0] == allSubmodulesSentinel:
				opts.Submodules = driver.SubmodulesAll
			case len(submodules) > 0:
				opts.Submodules = driver.SubmodulesList
				for _, s := range submodules {
					opts.SubmoduleNames = append(opts.SubmoduleNames, modpath.Name(s))
				}
			case projCfg != nil && len(projCfg.ExtrasModules) > 0:
				// No --submodules given on the command line: fall back to
				// the project's declared extras modules, so .depsplit.toml
				// alone is enough to recurse over the same sub-modules a
				// later `partition` run would group.
				opts.Submodules = driver.SubmodulesList
				opts.SubmoduleNames = projCfg.ExtrasModules
			}

			closures, err := driver.TrackModule(context.Background(), root, workDir, target, opts)
			if err != nil {
				return err
			}

			out := renderOutput(closures, annotationMode{
				detectTransitive: detectTransitive,
				showOptional:     showOptional,
				trackStack:       trackImportStack,
			})
			return writeJSON(stdout, out, indent)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "target module name (may be relative)")
	flags.StringVar(&pkg, "package", "", "parent package when --name is relative")
	flags.StringVar(&dir, "dir", "", "module root directory (defaults to the working directory)")
	flags.StringSliceVar(&submodules, "submodules", nil, "recurse over all, or the listed, sub-modules")
	// A bare "--submodules" (no value) means "all" — NoOptDefVal supplies a
	// sentinel since pflag's StringSlice treats an empty NoOptDefVal as
	// "this flag always requires an argument" rather than as an empty list.
	flags.Lookup("submodules").NoOptDefVal = allSubmodulesSentinel
	flags.BoolVar(&trackImportStack, "track_import_stack", false, "include witness paths in output")
	flags.BoolVar(&detectTransitive, "detect_transitive", false, "annotate direct/transitive")
	flags.BoolVar(&showOptional, "show_optional", false, "annotate optional per dependency")
	flags.BoolVar(&fullDepth, "full_depth", false, "recurse into third-party deps too")
	flags.IntVar(&logLevel, "log_level", 0, "verbosity (fine-grained DEBUG levels 1-4)")
	flags.IntVar(&indent, "indent", 0, "pretty-print JSON output with this many spaces")
	flags.BoolVar(&parentOnly, "parent-only", false, "attribute an ancestor's direct dependency solely to the ancestor, skipping parent-direct-dep augmentation")
	flags.BoolVar(&includeTests, "include-tests", false, "fold each package's test-only imports into discovery")

	cmd.AddCommand(newPartitionCmd(stdout, stderr))

	return cmd
}

// moduleRoot reads the module path out of dir/go.mod — the one piece of
// "reading the declared-requirements file"-adjacent work spec.md §1 keeps
// as an external collaborator rather than core-library scope.
func moduleRoot(dir string) (modpath.Name, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("reading go.mod in %s: %w", dir, err)
	}
	mp := modfile.ModulePath(data)
	if mp == "" {
		return "", fmt.Errorf("go.mod in %s declares no module path", dir)
	}
	return modpath.Name(mp), nil
}

type annotationMode struct {
	detectTransitive bool
	showOptional     bool
	trackStack       bool
}

func (a annotationMode) any() bool {
	return a.detectTransitive || a.showOptional || a.trackStack
}

// depAnnotation is the per-dependency shape for annotated-mode output
// (spec.md §6): `{ type?, optional?, stack? }`.
type depAnnotation struct {
	Type     string       `json:"type,omitempty"`
	Optional *bool        `json:"optional,omitempty"`
	Stack    []stackFrame `json:"stack,omitempty"`
}

// stackFrame mirrors spec.md §6's `{filename, lineno, code_context}` shape,
// one frame per closure.WitnessHop plus a final frame for the witness's
// LeafSite (the import statement that actually names the third-party
// root). A frame synthesized by parent-direct-dep augmentation's namespace
// climb carries no real Site (see closure.graftAncestors), so its
// filename/lineno are left zero and code_context falls back to the hop's
// module name.
type stackFrame struct {
	Filename    string `json:"filename"`
	Lineno      int    `json:"lineno"`
	CodeContext string `json:"code_context"`
}

func hopFrame(hop closure.WitnessHop) stackFrame {
	if hop.Site.Filename == "" {
		return stackFrame{CodeContext: string(hop.Module)}
	}
	return stackFrame{
		Filename:    hop.Site.Filename,
		Lineno:      hop.Site.Line,
		CodeContext: hop.Site.CodeContext,
	}
}

func renderOutput(closures map[modpath.Name]closure.Closure, mode annotationMode) interface{} {
	names := make([]modpath.Name, 0, len(closures))
	for n := range closures {
		names = append(names, n)
	}
	modpath.SortNames(names)

	if !mode.any() {
		out := make(map[string][]string, len(names))
		for _, n := range names {
			roots := make([]string, 0, len(closures[n]))
			for root := range closures[n] {
				roots = append(roots, string(root))
			}
			sort.Strings(roots)
			out[string(n)] = roots
		}
		return out
	}

	out := make(map[string]map[string]depAnnotation, len(names))
	for _, n := range names {
		c := closures[n]
		roots := make([]modpath.Name, 0, len(c))
		for root := range c {
			roots = append(roots, root)
		}
		modpath.SortNames(roots)

		deps := make(map[string]depAnnotation, len(roots))
		for _, root := range roots {
			rec := c[root]
			var ann depAnnotation
			if mode.detectTransitive {
				if rec.Direct {
					ann.Type = "direct"
				} else {
					ann.Type = "transitive"
				}
			}
			if mode.showOptional {
				v := rec.Optional
				ann.Optional = &v
			}
			if mode.trackStack {
				for _, w := range rec.Witnesses {
					for _, hop := range w.Hops {
						ann.Stack = append(ann.Stack, hopFrame(hop))
					}
					ann.Stack = append(ann.Stack, stackFrame{
						Filename:    w.LeafSite.Filename,
						Lineno:      w.LeafSite.Line,
						CodeContext: w.LeafSite.CodeContext,
					})
				}
			}
			deps[string(root)] = ann
		}
		out[string(n)] = deps
	}
	return out
}

func writeJSON(w io.Writer, v interface{}, indent int) error {
	enc := json.NewEncoder(w)
	if indent > 0 {
		enc.SetIndent("", fmt.Sprintf("%*s", indent, ""))
	}
	return enc.Encode(v)
}
