package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"relcheck/internal/config"
	"relcheck/internal/flags"
	"relcheck/internal/gitops"
	gh "relcheck/internal/github"
	"relcheck/internal/versionsync"
)

var (
	bumpNoCommit      bool
	bumpNoTag         bool
	bumpAllowDirty    bool
	bumpForce         bool
	bumpGitHubRelease bool
	bumpRepo          string
)

var bumpCmd = &cobra.Command{
	Use:   "bump <new_version>",
	Short: "Advance the version everywhere it is declared",
	Long: `Advance the canonical version and propagate it to every declared file
target, atomically: all targets are read and validated against the current
version before any file is written, so a drifted target aborts the bump with
nothing modified.

The config file's own version.current line is updated together with the
declared targets, whichever quoting style it uses.

On success, a git commit covering the modified files and a tag named after
the new version are created (configurable; see --no-commit / --no-tag).
Commit and tag are best-effort follow-on steps: their failure is reported
but does not roll back the files.

With --github-release, a GitHub release is published for the new tag.
Authentication uses GITHUB_TOKEN, falling back to GitHub CLI credentials.

Examples:
	relcheck bump 2.5.0
	relcheck bump 2.5.0 --no-tag
	relcheck bump 2.5.0 --github-release --repo acme/widget

Re-running a bump with the already-current version is a no-op: no file
changes, no commit, no tag.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		newVersion := strings.TrimSpace(args[0])

		cfg, err := loadConfig()
		if err != nil {
			fatalf("%v", err)
		}
		if bumpGitHubRelease {
			if bumpNoTag {
				fatalf("--%s requires a tag (drop --%s)", flags.FlagGitHubRelease, flags.FlagNoTag)
			}
			if strings.TrimSpace(bumpRepo) == "" {
				fatalf("--%s requires --%s OWNER/REPO", flags.FlagGitHubRelease, flags.FlagRepo)
			}
			if _, _, err := gh.ParseRepo(bumpRepo); err != nil {
				fatalf("%v", err)
			}
		}

		os.Exit(runBump(cmd, cfg, newVersion))
	},
}

func runBump(cmd *cobra.Command, cfg *config.Config, newVersion string) int {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	doCommit := cfg.Version.Commit && !bumpNoCommit
	doTag := cfg.Version.Tag && !bumpNoTag

	var git *gitops.Git
	if doCommit || doTag {
		g, err := gitops.New(".")
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return ExitFatal
		}
		git = g

		if doCommit && !bumpAllowDirty {
			dirty, err := git.IsDirty(ctx)
			if err != nil {
				fmt.Fprintf(errOut, "Error: %v\n", err)
				return ExitFatal
			}
			if dirty {
				fmt.Fprintf(errOut, "Error: git worktree has uncommitted changes (use --%s to bump anyway)\n", flags.FlagAllowDirty)
				return ExitFatal
			}
		}
	}

	// The config file's version.current line is a derived copy like any
	// other target; bumping it in the same all-or-nothing pass keeps the
	// canonical value and the file copies from drifting.
	targets := append([]config.FileTarget(nil), cfg.Version.Targets...)
	cfgPath, err := config.Locate(".", flagConfig)
	if err == nil {
		self, err := config.SelfTarget(cfgPath, cfg.Version.Current)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return ExitVersionFail
		}
		targets = append(targets, self)
	}

	sync, err := versionsync.New(".", targets)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExitFatal
	}

	res, err := sync.Bump(cfg.Version.Current, newVersion, bumpForce)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExitVersionFail
	}
	if res.AlreadyCurrent {
		fmt.Fprintf(out, "already at version %s; nothing to do\n", newVersion)
		return ExitOK
	}
	for _, path := range res.Changed {
		fmt.Fprintf(out, "updated %s\n", path)
	}

	tagName := cfg.Version.TagPrefix + res.New

	if doCommit {
		msg := renderMessage(cfg.Version.CommitMessage, res.Old, res.New)
		if err := git.Commit(ctx, msg, res.Changed); err != nil {
			fmt.Fprintf(errOut, "Error: files updated but commit failed: %v\n", err)
			return ExitVersionFail
		}
		fmt.Fprintf(out, "committed: %s\n", msg)
	}
	if doTag {
		if err := git.Tag(ctx, tagName, "Release "+res.New); err != nil {
			fmt.Fprintf(errOut, "Error: files updated but tag failed: %v\n", err)
			return ExitVersionFail
		}
		fmt.Fprintf(out, "tagged: %s\n", tagName)
	}

	if bumpGitHubRelease {
		if code := publishRelease(ctx, out, errOut, git, tagName); code != ExitOK {
			return code
		}
	}

	fmt.Fprintf(out, "version bumped: %s -> %s\n", res.Old, res.New)
	return ExitOK
}

func publishRelease(ctx context.Context, out, errOut io.Writer, git *gitops.Git, tagName string) int {
	token, _, err := gh.ResolveAuthToken(ctx, "")
	if err != nil {
		fmt.Fprintf(errOut, "Error: failed to resolve GitHub auth token: %v\n", err)
		return ExitVersionFail
	}
	if strings.TrimSpace(token) == "" {
		fmt.Fprintln(errOut, "Error: GitHub auth token is required for --github-release (set GITHUB_TOKEN or run 'gh auth login')")
		return ExitVersionFail
	}

	client, err := gh.NewClient(ctx, token)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExitVersionFail
	}
	owner, repo, err := gh.ParseRepo(bumpRepo)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExitVersionFail
	}

	var commitish string
	if git != nil {
		if head, err := git.Head(ctx); err == nil {
			commitish = head
		}
	}
	url, err := client.PublishRelease(ctx, owner, repo, tagName, commitish)
	if err != nil {
		fmt.Fprintf(errOut, "Error: tag created but release failed: %v\n", err)
		return ExitVersionFail
	}
	fmt.Fprintf(out, "released: %s\n", url)
	return ExitOK
}

func renderMessage(template, oldVersion, newVersion string) string {
	msg := strings.ReplaceAll(template, "{old}", oldVersion)
	return strings.ReplaceAll(msg, "{new}", newVersion)
}

func init() {
	rootCmd.AddCommand(bumpCmd)
	bumpCmd.Flags().BoolVar(&bumpNoCommit, flags.FlagNoCommit, false, "Do not create a git commit")
	bumpCmd.Flags().BoolVar(&bumpNoTag, flags.FlagNoTag, false, "Do not create a git tag")
	bumpCmd.Flags().BoolVar(&bumpAllowDirty, flags.FlagAllowDirty, false, "Allow bumping with uncommitted changes in the worktree")
	bumpCmd.Flags().BoolVar(&bumpForce, flags.FlagForce, false, "Allow bumping to an older version")
	bumpCmd.Flags().BoolVar(&bumpGitHubRelease, flags.FlagGitHubRelease, false, "Publish a GitHub release for the new tag")
	bumpCmd.Flags().StringVar(&bumpRepo, flags.FlagRepo, "", "GitHub repository as OWNER/REPO (required with --github-release)")
}
