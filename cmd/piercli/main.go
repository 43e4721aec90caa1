// Command piercli is a cobra-based smoke-test driver for piercore: it
// exercises the PTY session, SSH session, and graph layout engine from
// a terminal instead of through the C-ABI boundary, the same role the
// teacher's single cmd/nosshtradamus binary plays for its proxy.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pier-term/piercore/internal/config"
	"github.com/pier-term/piercore/internal/gitlog"
	"github.com/pier-term/piercore/internal/graph"
	"github.com/pier-term/piercore/internal/logx"
	"github.com/pier-term/piercore/internal/search"
	"github.com/pier-term/piercore/internal/sshclient"
	"github.com/pier-term/piercore/internal/terminal"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "piercli",
		Short: "Smoke-test driver for the piercore terminal and SSH library",
	}
	cmd.AddCommand(runCmd(), sshExecCmd(), graphCmd(), searchCmd())
	return cmd
}

func runCmd() *cobra.Command {
	var shell string
	var cols, rows int
	cmd := &cobra.Command{
		Use:   "run [command...]",
		Short: "Spawn a local PTY session, write a command, print one read of its output",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := terminal.Create(cols, rows, shell)
			if err != nil {
				return err
			}
			defer sess.Close()

			if len(args) > 0 {
				line := ""
				for i, a := range args {
					if i > 0 {
						line += " "
					}
					line += a
				}
				if _, err := sess.Write([]byte(line + "\n")); err != nil {
					return err
				}
			}

			data, err := sess.Read()
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
	cfg := config.Default()
	cmd.Flags().StringVar(&shell, "shell", cfg.DefaultShell, "shell to spawn")
	cmd.Flags().IntVar(&cols, "cols", 80, "terminal width")
	cmd.Flags().IntVar(&rows, "rows", 24, "terminal height")
	return cmd
}

func sshExecCmd() *cobra.Command {
	var host, username, password string
	var port int
	cmd := &cobra.Command{
		Use:   "ssh-exec <command>",
		Short: "Connect over SSH with TOFU host-key checking and run one command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			store, err := sshclient.NewKnownHostsStore(cfg.KnownHostsPath)
			if err != nil {
				return err
			}
			sshCfg := sshclient.Config{
				Host:     host,
				Port:     uint16(port),
				Username: username,
				Auth:     sshclient.PasswordAuth(password),
			}
			session := sshclient.New(sshCfg, store)
			if err := session.Connect(); err != nil {
				return err
			}
			defer session.Disconnect()

			res, err := session.ExecCommand(args[0])
			if err != nil {
				return err
			}
			fmt.Println(res.Stdout)
			logx.WithField("exit_code", res.ExitCode).Info("ssh-exec finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "localhost", "SSH host")
	cmd.Flags().IntVar(&port, "port", 22, "SSH port")
	cmd.Flags().StringVar(&username, "user", "root", "SSH username")
	cmd.Flags().StringVar(&password, "password", "", "SSH password")
	return cmd
}

func graphCmd() *cobra.Command {
	var branch string
	var limit int
	cmd := &cobra.Command{
		Use:   "graph <repo-path>",
		Short: "Compute and print the commit graph layout for a local repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := gitlog.Filter{Branch: branch, Limit: limit}
			commits, err := gitlog.Enumerate(args[0], filter)
			if err != nil {
				return err
			}
			mainChain := firstParentChain(commits)

			params := graph.Params{LaneWidth: 20, RowHeight: 24, ShowLongEdges: true}
			rows := graph.Layout(commits, mainChain, params)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "", "branch to walk (default HEAD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max commits (0 = unlimited)")
	return cmd
}

// firstParentChain marks every commit reachable by always following
// the first parent from the newest commit as the main chain, the same
// heuristic gitlog.DetectDefaultBranch's callers are expected to apply
// before calling graph.Layout.
func firstParentChain(commits []graph.Commit) map[string]struct{} {
	byHash := make(map[string]graph.Commit, len(commits))
	for _, c := range commits {
		byHash[c.Hash] = c
	}
	chain := make(map[string]struct{})
	if len(commits) == 0 {
		return chain
	}
	hash := commits[0].Hash
	for hash != "" {
		chain[hash] = struct{}{}
		c, ok := byHash[hash]
		if !ok {
			break
		}
		parents := strings.Fields(c.Parents)
		if len(parents) == 0 {
			break
		}
		hash = parents[0]
	}
	return chain
}

func searchCmd() *cobra.Command {
	var pattern string
	var maxResults int
	cmd := &cobra.Command{
		Use:   "search <root>",
		Short: "Case-insensitive substring file search honoring .gitignore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := search.Files(args[0], pattern, maxResults)
			if err != nil {
				return err
			}
			for _, e := range entries {
				kind := "file"
				if e.IsDir {
					kind = "dir"
				}
				fmt.Printf("%-4s %8s  %s\n", kind, strconv.FormatInt(e.Size, 10), e.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "substring to match against file names")
	cmd.Flags().IntVar(&maxResults, "max-results", 200, "cap on returned results")
	return cmd
}
