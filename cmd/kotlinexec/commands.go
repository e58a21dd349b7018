package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/kotlinexec/backend"
	"github.com/jonwraymond/kotlinexec/backend/local"
	"github.com/jonwraymond/kotlinexec/invoke"
	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/search"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
)

func newLocateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Print the resolved Kotlin toolchain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ex, err := a.exec()
			if err != nil {
				return err
			}
			defer a.release(ex)

			tc, err := ex.Toolchain()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "external\t%t\n", tc.External)
			fmt.Fprintf(w, "home\t%s\n", tc.Home)
			if tc.External {
				fmt.Fprintf(w, "compiler\t%s\n", tc.CompilerPath)
			} else {
				fmt.Fprintf(w, "runtime jar\t%s\n", tc.RuntimeJar)
				fmt.Fprintf(w, "compiler jar\t%s\n", tc.CompilerJar)
			}
			return w.Flush()
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	var showKey bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the compiler version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ex, err := a.exec()
			if err != nil {
				return err
			}
			defer a.release(ex)

			ctx := cmd.Context()
			v, err := ex.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ex.Invocation().ShortName(), v)
			if showKey {
				key, err := ex.RuleKey(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rule key: %s\n", key)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showKey, "rule-key", false, "also print the toolchain rule key")
	return cmd
}

func newCompileCmd(a *app) *cobra.Command {
	var req invoke.Request
	var classpath []string
	cmd := &cobra.Command{
		Use:   "compile [flags] source...",
		Short: "Compile Kotlin sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := a.exec()
			if err != nil {
				return err
			}
			defer a.release(ex)

			req.SourceFiles = args
			req.Classpath = invoke.NewClasspath(classpath...)
			res, err := ex.Compile(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !res.OK() {
				if diags := res.Diagnostics(); diags != "" {
					fmt.Fprint(cmd.ErrOrStderr(), diags)
					if !strings.HasSuffix(diags, "\n") {
						fmt.Fprintln(cmd.ErrOrStderr())
					}
				}
				return &exitError{code: exitStatus(res.ExitCode)}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.OutputDir, "output-dir", "d", "", "directory receiving compiled classes")
	f.StringSliceVar(&classpath, "classpath", nil, "classpath entries (repeatable, comma separated)")
	f.StringVar(&req.SrcsList, "srcs-list", "", "file listing the sources, passed as @file in descriptions")
	f.StringArrayVar(&req.ExtraArgs, "extra-arg", nil, "extra compiler argument (repeatable)")
	f.StringArrayVar(&req.Options, "option", nil, "compiler option shown in the step description (repeatable)")
	f.StringVar(&req.WorkingDir, "working-dir", "", "directory the compiler runs in")
	_ = cmd.MarkFlagRequired("output-dir")
	return cmd
}

// exitStatus maps a compiler exit code onto a process status.
func exitStatus(code int) int {
	if code <= 0 || code > 255 {
		return 1
	}
	return code
}

func newToolsCmd(a *app) *cobra.Command {
	var limit int
	var describe string
	cmd := &cobra.Command{
		Use:   "tools [query]",
		Short: "List or search the toolchain's tools",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := a.exec()
			if err != nil {
				return err
			}

			defer a.release(ex)

			reg := backend.NewRegistry()
			if err := reg.Register(local.New("kotlin", ex)); err != nil {
				return err
			}

			idx := index.NewInMemoryIndex(index.IndexOptions{
				Searcher: search.NewBM25Searcher(search.BM25Config{}),
			})
			docs := tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: idx})
			agg := backend.NewAggregator(reg)
			if _, err := agg.Publish(cmd.Context(), idx, docs); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if describe != "" {
				doc, err := docs.DescribeTool(describe, tooldoc.DetailFull)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n  %s\n", color.New(color.Bold).Sprint(describe), doc.Summary)
				if doc.Notes != "" {
					fmt.Fprintf(out, "  %s\n", doc.Notes)
				}
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			if len(args) == 0 {
				tools, err := agg.ListAllTools(cmd.Context())
				if err != nil {
					return err
				}
				for _, t := range tools {
					fmt.Fprintf(w, "%s\t%s\n", backend.FormatToolID(t.Namespace, t.Name), t.Title)
				}
				return w.Flush()
			}

			results, err := idx.Search(args[0], limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return errors.New("no tools match " + args[0])
			}
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\n", r.ID, r.ShortDescription)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVar(&describe, "describe", "", "print the documentation of a tool ID")
	return cmd
}
