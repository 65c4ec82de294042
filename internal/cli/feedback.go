package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/revlens/revlens/internal/config"
	"github.com/revlens/revlens/internal/store"
)

// withStore loads config, opens the feedback store, and runs fn with it.
func withStore(fn func(*store.Store) error) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	st := openStore(cfg)
	if st == nil {
		exitCode = ExitRuntimeError
		return nil
	}
	defer st.Close()
	return fn(st)
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record verdicts on review findings",
	Long:  "Accept or reject stored findings. Accepted findings become learned patterns that steer future reviews.",
}

var feedbackAcceptCmd = &cobra.Command{
	Use:   "accept <finding-id>",
	Short: "Mark a finding as a real issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.RecordVerdict(args[0], store.VerdictAccept); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			fmt.Fprintf(os.Stdout, "Accepted finding %s (promoted to learned pattern)\n", args[0])
			return nil
		})
	},
}

var feedbackRejectCmd = &cobra.Command{
	Use:   "reject <finding-id>",
	Short: "Mark a finding as a false positive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.RecordVerdict(args[0], store.VerdictReject); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			fmt.Fprintf(os.Stdout, "Rejected finding %s\n", args[0])
			return nil
		})
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list <run-id>",
	Short: "List stored findings for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			findings, err := st.ListFindings(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			if len(findings) == 0 {
				fmt.Fprintln(os.Stdout, "No findings stored for this run.")
				return nil
			}
			for _, f := range findings {
				verdict := f.Verdict
				if verdict == "" {
					verdict = "pending"
				}
				fmt.Fprintf(os.Stdout, "%s  [%s] %s:%d  %s  (%s)\n",
					f.ID, f.Severity, f.FilePath, f.LineNumber, f.Issue, verdict)
			}
			return nil
		})
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage learned review patterns",
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			patterns, err := st.ListPatterns(0)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			if len(patterns) == 0 {
				fmt.Fprintln(os.Stdout, "No learned patterns yet. Accept findings with 'revlens feedback accept'.")
				return nil
			}
			for _, p := range patterns {
				fmt.Fprintf(os.Stdout, "%s  [%s]  %s\n", p.ID, p.CheckID, p.Issue)
				if p.Example != "" {
					fmt.Fprintf(os.Stdout, "    seen at %s\n", p.Example)
				}
			}
			return nil
		})
	},
}

var patternsDeleteCmd = &cobra.Command{
	Use:   "delete <pattern-id>",
	Short: "Delete a learned pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.DeletePattern(args[0]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			fmt.Fprintf(os.Stdout, "Deleted pattern %s\n", args[0])
			return nil
		})
	},
}

func init() {
	feedbackCmd.AddCommand(feedbackAcceptCmd)
	feedbackCmd.AddCommand(feedbackRejectCmd)
	feedbackCmd.AddCommand(feedbackListCmd)
	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsDeleteCmd)
}
