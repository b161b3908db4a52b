package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dotagents/internal/app"
	"dotagents/internal/deploy"
	"dotagents/internal/logging"
	"dotagents/internal/scaffold"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

// commandError names the operation that failed so the error chain can be
// printed as "Failed to <op>".
type commandError struct {
	op  string
	err error
}

func (e *commandError) Error() string { return "failed to " + e.op + ": " + e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

func failed(op string, err error) error {
	if err == nil {
		return nil
	}
	return &commandError{op: op, err: err}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprint(os.Stderr, formatError(err))
		var ex ExitCoder
		if errors.As(err, &ex) {
			os.Exit(ex.ExitCode())
		}
		os.Exit(1)
	}
}

// formatError renders err and its causes, one per line. Each cause is
// printed without the text it already shares with the next one.
func formatError(err error) string {
	var b strings.Builder
	var ce *commandError
	if errors.As(err, &ce) {
		fmt.Fprintf(&b, "Failed to %s\n", ce.op)
		err = ce.err
	} else if ex, ok := err.(*exitError); ok {
		if ex.msg != "" {
			b.WriteString(ex.msg + "\n")
		}
		return b.String()
	} else {
		b.WriteString("Error\n")
	}
	b.WriteString("Caused by:\n")
	for e := err; e != nil; {
		next := errors.Unwrap(e)
		msg := e.Error()
		if next != nil {
			msg = strings.TrimSuffix(msg, ": "+next.Error())
		}
		if msg != "" {
			fmt.Fprintf(&b, "    %s\n", msg)
		}
		e = next
	}
	return b.String()
}

func newRootCmd() *cobra.Command {
	var workspace string
	var jsonOutput bool
	var verbose int
	var quiet bool
	var logger *slog.Logger

	newSvc := func() (*app.Service, error) {
		return app.New(app.Options{WorkspaceRoot: workspace, Logger: logger})
	}

	cmd := &cobra.Command{
		Use:           "dotagents",
		Short:         "Keep agent instructions, commands and MCP servers in sync across coding tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.Setup(cmd.ErrOrStderr(), verbose, quiet)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace root (default: nearest directory containing .dotagents)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (-v, -vv, -vvv)")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	cmd.AddCommand(newInitCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newDeployCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newValidateCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newDoctorCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newCompletionCmd(cmd, &jsonOutput))
	cmd.AddCommand(newVersionCmd(&jsonOutput))

	return cmd
}

func newInitCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var opts scaffold.Options
	var detect bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .dotagents directory with seed configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return failed("initialize workspace", err)
			}
			res, err := svc.Init(opts, detect)
			if err != nil {
				return failed("initialize workspace", err)
			}
			return print(*jsonOutput, res, "initialized "+res.ApplicationDir)
		},
	}
	cmd.Flags().BoolVar(&opts.NoMCP, "no-mcp", false, "do not enable the mcp feature")
	cmd.Flags().BoolVar(&opts.NoCommand, "no-command", false, "do not enable the commands feature")
	cmd.Flags().BoolVar(&opts.NoInstruction, "no-instruction", false, "do not enable the instructions feature")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing .dotagents directory")
	cmd.Flags().BoolVar(&detect, "detect", false, "add installed tools to the targets")
	return cmd
}

func newDeployCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var opts deploy.Options
	var check bool
	var printConfig bool
	cmd := &cobra.Command{
		Use:     "deploy",
		Aliases: []string{"sync", "apply"},
		Short:   "Render and write every changed artifact",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return failed("deploy", err)
			}
			if check {
				opts.DryRun = true
			}
			report, err := svc.Deploy(context.Background(), opts)
			if err != nil {
				return failed("deploy", err)
			}
			if *jsonOutput {
				if err := print(true, report, ""); err != nil {
					return err
				}
			} else {
				printDeployReport(os.Stdout, report, opts)
			}
			if printConfig {
				text, err := svc.PrintConfig(report)
				if err != nil {
					return failed("print configuration", err)
				}
				fmt.Print(text)
			}
			if check && report.Drift.Dirty() {
				return &exitError{code: 2, msg: fmt.Sprintf("drift detected: %d new, %d changed", report.Drift.New, report.Drift.Changed)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report what would be written without writing")
	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "print unified diffs for artifacts that would change")
	cmd.Flags().BoolVar(&check, "check", false, "dry run that exits 2 when anything would be written")
	cmd.Flags().BoolVar(&printConfig, "print", false, "print the effective configuration and cache projection as TOML")
	return cmd
}

func printDeployReport(w io.Writer, report deploy.Report, opts deploy.Options) {
	verb := "wrote"
	if opts.DryRun {
		verb = "would write"
	}
	for _, a := range report.Artifacts {
		switch a.Action {
		case deploy.ActionWrite:
			fmt.Fprintf(w, "%s %s (%s) -> %s\n", verb, a.Key(), a.Status, a.Target)
		case deploy.ActionRestore:
			fmt.Fprintf(w, "restored %s -> %s\n", a.Key(), a.Target)
		case deploy.ActionSkip:
			fmt.Fprintf(w, "skipped %s: %s\n", a.Key(), a.Reason)
		}
		for _, path := range a.Stale {
			fmt.Fprintf(w, "stale %s: %s is no longer produced\n", a.Key(), path)
		}
		if a.Diff != "" {
			fmt.Fprint(w, a.Diff)
		}
	}
	fmt.Fprintf(w, "new=%d changed=%d unchanged=%d written=%d\n",
		report.Drift.New, report.Drift.Changed, report.Drift.Unchanged, report.Written())
}

func newValidateCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "validate",
		Aliases: []string{"verify", "lint"},
		Short:   "Resolve and validate the global and local configuration",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return failed("validate configuration", err)
			}
			if err := svc.Validate(); err != nil {
				return failed("validate configuration", err)
			}
			return print(*jsonOutput, map[string]any{"valid": true}, "ok")
		},
	}
}

func newDoctorCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag", "checkup"},
		Short:   "Run diagnostics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return failed("run diagnostics", err)
			}
			report := svc.RunDoctor(context.Background())
			if *jsonOutput {
				return print(true, report, "")
			}
			if len(report.Findings) == 0 {
				fmt.Println("healthy")
				return nil
			}
			if report.Healthy {
				fmt.Println("healthy, with notes:")
			} else {
				fmt.Println("issues found:")
			}
			for _, f := range report.Findings {
				fmt.Printf("- [%s] %s: %s\n", f.Level, f.Code, f.Message)
			}
			return nil
		},
	}
}

var completionFiles = map[string]string{
	"bash":       "dotagents.bash",
	"zsh":        "_dotagents",
	"fish":       "dotagents.fish",
	"powershell": "_dotagents.ps1",
}

func newCompletionCmd(root *cobra.Command, jsonOutput *bool) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:       "completion <bash|zsh|fish|powershell>",
		Short:     "Generate shell completion scripts",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := args[0]
			if dir == "" {
				return writeCompletion(root, shell, os.Stdout)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return failed("generate completions", err)
			}
			path := filepath.Join(dir, completionFiles[shell])
			f, err := os.Create(path)
			if err != nil {
				return failed("generate completions", err)
			}
			if err := writeCompletion(root, shell, f); err != nil {
				_ = f.Close()
				return failed("generate completions", err)
			}
			if err := f.Close(); err != nil {
				return failed("generate completions", err)
			}
			return print(*jsonOutput, map[string]string{"shell": shell, "path": path}, "wrote "+path)
		},
	}
	cmd.Flags().StringVar(&dir, "to", "", "write the script into this directory instead of stdout")
	return cmd
}

func writeCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("CLI_COMPLETION: unsupported shell %q", shell)
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
