package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lit1088/gitqlient/internal/buildinfo"
	"github.com/lit1088/gitqlient/internal/cache"
	"github.com/lit1088/gitqlient/internal/git"
	"github.com/lit1088/gitqlient/internal/watch"
)

func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	var (
		all     bool
		verbose bool
		watched bool
	)
	cmd := &cobra.Command{
		Use:   "gitqlient [path]",
		Short: "Load a git repository's history, references and working-tree state",
		Long: `gitqlient runs one repository load cycle: it resolves the repository
root, retrieves the commit history, synthesizes the working-tree revision,
classifies references and computes branch divergence, then prints a
summary of the populated revision cache.`,
		Example: `  # Load the repository containing the current directory
  gitqlient

  # Load every branch of a repository and keep reloading on changes
  gitqlient --all --watch ~/src/project`,
		Args:          cobra.MaximumNArgs(1),
		Version:       buildinfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return run(cmd, path, all, verbose, watched)
		},
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.Flags().BoolVar(&all, "all", false, "load the history of all branches instead of the current one")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	cmd.Flags().BoolVarP(&watched, "watch", "w", false, "keep running and reload when the repository changes")

	return cmd
}

func run(cmd *cobra.Command, path string, all, verbose, watched bool) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	store := cache.New()
	base := git.NewGitBase(git.NewLocalExecutor(), path)
	loader := git.NewRepoLoader(base, store)
	loader.SetShowAll(all)

	finished := make(chan struct{}, 1)
	loader.AddListener(func(ev git.Event) {
		switch ev := ev.(type) {
		case git.LoadStarted:
			fmt.Fprintf(cmd.ErrOrStderr(), "loading %d revisions\n", ev.Total)
		case git.LoadFinished:
			select {
			case finished <- struct{}{}:
			default:
			}
		}
	})

	if !loader.LoadRepository() {
		return fmt.Errorf("could not load repository at %s", path)
	}
	<-finished
	printSummary(cmd.OutOrStdout(), base, store)

	if !watched {
		return nil
	}

	watcher, err := watch.New(base.WorkingDir(), watch.DefaultDelay, func() {
		// A reload rejected because a cycle is in flight is fine; the next
		// filesystem event retries.
		loader.LoadRepository()
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	for {
		select {
		case <-finished:
			printSummary(cmd.OutOrStdout(), base, store)
		case <-interrupt:
			loader.Cancel()
			return nil
		}
	}
}

func printSummary(w io.Writer, base *git.GitBase, store *cache.RevisionsCache) {
	fmt.Fprintf(w, "%s: %d revisions on %s\n", base.WorkingDir(), store.Count(), base.CurrentBranch())
	if store.PendingLocalChanges() {
		fmt.Fprintln(w, "working tree has local changes")
	}
	if files := store.UntrackedFiles(); len(files) > 0 {
		fmt.Fprintf(w, "untracked: %s\n", strings.Join(files, ", "))
	}
	for _, ref := range store.References(git.RefTypeLocalBranch) {
		d := store.LocalBranchDistances(ref.Name)
		fmt.Fprintf(w, "  branch %-24s %s  master +%d/-%d  origin +%d/-%d\n",
			ref.Name, shortSha(ref.Sha),
			d.AheadMaster, d.BehindMaster,
			d.AheadOrigin, d.BehindOrigin,
		)
	}
	for _, ref := range store.References(git.RefTypeRemoteBranch) {
		fmt.Fprintf(w, "  remote %-24s %s\n", ref.Name, shortSha(ref.Sha))
	}
	for _, ref := range store.References(git.RefTypeTag) {
		fmt.Fprintf(w, "  tag    %-24s %s\n", ref.Name, shortSha(ref.Sha))
	}
}

func shortSha(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
