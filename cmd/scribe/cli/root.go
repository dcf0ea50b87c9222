package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/scribe/internal/config"
	"github.com/felixgeelhaar/scribe/internal/ui"
	"github.com/felixgeelhaar/scribe/internal/ui/tui"
	"github.com/felixgeelhaar/scribe/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	ciMode  bool
	tone    string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "AI blogging assistant",
	Long: `Scribe researches topics, drafts blog posts, runs embedded code in a
sandbox, and publishes the result as a blog draft. Session state persists
across invocations, so each command picks up where the last one left off.`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Find trending topics to write about",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("topics", workflow.Args{})
	},
}

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Research a topic and record the findings",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAction("research", workflow.Args{Text: strings.Join(args, " ")})
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate a blog post draft about a topic",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAction("generate", workflow.Args{Text: strings.Join(args, " "), Tone: tone},
			config.DomainCompletion)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current draft against the code policy",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("validate", workflow.Args{})
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Run the validated draft's code in the sandbox",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("execute", workflow.Args{}, config.DomainSandbox)
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish [title]",
	Short: "Publish the current artifact as a blog draft",
	Run: func(cmd *cobra.Command, args []string) {
		runAction("publish", workflow.Args{Text: strings.Join(args, " ")},
			config.DomainPublish)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the conversation history",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("history", workflow.Args{})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset the session to an empty state",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("clear", workflow.Args{})
	},
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List previously published posts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openArchive()
		defer a.Close()

		posts, err := a.ListPosts()
		if err != nil {
			fail(err)
		}
		if len(posts) == 0 {
			fmt.Println("No published posts yet.")
			return
		}
		for _, p := range posts {
			fmt.Printf("%s  %s  %s\n", p.PublishedAt.Format("2006-01-02"), p.PostID, p.Title)
		}
	},
}

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"chat"},
	Short:   "Start an interactive assistant session",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runInteractive()
	},
}

func init() {
	RootCmd.AddCommand(topicsCmd, researchCmd, generateCmd, validateCmd,
		executeCmd, publishCmd, historyCmd, clearCmd, postsCmd, interactiveCmd)
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().BoolVar(&ciMode, "ci", false, "CI mode: JSON logs, non-interactive")
	generateCmd.Flags().StringVarP(&tone, "tone", "t", "", "Writing tone (default from configuration)")
}

// runAction is the one-shot path: bootstrap, run a single action with
// streamed output on stdout, print the summary, tear down.
func runAction(name string, args workflow.Args, domains ...config.Domain) {
	a, err := newApp(domains...)
	if err != nil {
		fail(err)
	}
	defer a.close()

	a.runner.SetSink(ui.WriterSink{W: os.Stdout})
	summary, err := a.runner.Run(context.Background(), name, args)
	if err != nil {
		fail(err)
	}
	fmt.Println(summary)
}

// runInteractive hosts the runner inside the TUI chat loop. Output is
// streamed into the view, so the sink switches to the program once it
// exists.
func runInteractive() {
	a, err := newApp(config.DomainCompletion)
	if err != nil {
		fail(err)
	}
	defer a.close()

	greeting := "Hi, I'm scribe. Ask me to find topics, research, generate, validate, execute, or publish. Type exit to quit."
	if s, err := a.store.Load(); err == nil && len(s.Topics) > 0 {
		greeting += "\n\nTopics on file:\n" + workflow.FormatTopics(s.Topics)
	}
	dispatch := func(line string) (string, error) {
		name, args := parseLine(line)
		return a.runner.Run(context.Background(), name, args)
	}

	model := tui.NewModel("scribe", greeting, dispatch)
	program := tea.NewProgram(model, tea.WithAltScreen())
	a.runner.SetSink(tui.NewTUI(program))

	if _, err := program.Run(); err != nil {
		fail(err)
	}
}

// parseLine maps a typed line onto an action. Lines that do not start
// with a known command are free-form chat.
func parseLine(line string) (string, workflow.Args) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "chat", workflow.Args{}
	}
	name := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch name {
	case "topics", "research", "generate", "validate", "execute", "publish", "history", "clear":
		return name, workflow.Args{Text: rest}
	default:
		return "chat", workflow.Args{Text: line}
	}
}
