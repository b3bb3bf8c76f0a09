// Package cli dispatches the taskboard client subcommands.
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/taskboard-dev/taskboard/internal/client"
	"github.com/taskboard-dev/taskboard/internal/tui"
)

const requestTimeout = 15 * time.Second

// Options tune behavior from root flags.
type Options struct {
	ConfigPath string
	ServerURL  string // overrides config and TASKBOARD_SERVER
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp()
		return 0
	}

	cfg, err := client.LoadConfig(opt.ConfigPath)
	if err != nil {
		fail("config: " + err.Error())
		return 1
	}
	if opt.ServerURL != "" {
		cfg.ServerURL = opt.ServerURL
	}
	api := client.NewAPIClient(cfg)

	switch cmd {
	case "signup":
		return doSignup(api, a)
	case "login":
		return doLogin(api, a)
	case "logout":
		return doLogout(api)
	case "whoami":
		return doWhoami(api)
	case "ls":
		return doList(api, a)
	case "add":
		return doAdd(api, a)
	case "done":
		return doToggle(api, a)
	case "rm":
		return doRemove(api, a)
	case "tui":
		return doTUI(api)
	}

	fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`taskboard - terminal client for the taskboard server

Usage:
  taskboard [flags] <subcommand> [args]

Subcommands:
  signup -name <name> -email <email>   Create an account and sign in
  login -email <email>                 Sign in (password prompted or -password)
  logout                               Sign out and drop the stored session
  whoami                               Show the signed-in profile
  ls [-status s] [-priority p] [-search q]
                                       List tasks (filters optional)
  add [-priority p] [-desc d] <title...>
                                       Create a task
  done [filters] <index>               Toggle completion for the indexed task
  rm [filters] <index>                 Delete the indexed task
  tui                                  Open the interactive dashboard

Indexes are 1-based positions in the ls output; pass done and rm the
same filters you gave ls so the indexes line up.

Examples:
  taskboard add "Buy milk"
  taskboard ls -status incomplete -priority high
  taskboard done -status incomplete 1
`)
}

// -------------- subcommand impls ----------------

func doSignup(api *client.APIClient, args []string) int {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" || *email == "" {
		fail("usage: taskboard signup -name <name> -email <email>")
		return 2
	}

	pw := *password
	if pw == "" {
		var ok bool
		pw, ok = promptPassword()
		if !ok {
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := api.Signup(ctx, *name, *email, pw)
	if err != nil {
		fail("signup: " + err.Error())
		return 1
	}
	ok("signed up as " + user.Email)
	return 0
}

func doLogin(api *client.APIClient, args []string) int {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *email == "" {
		fail("usage: taskboard login -email <email>")
		return 2
	}

	pw := *password
	if pw == "" {
		var ok bool
		pw, ok = promptPassword()
		if !ok {
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := api.Login(ctx, *email, pw)
	if err != nil {
		fail("login: " + err.Error())
		return 1
	}
	ok("logged in as " + user.Email)
	return 0
}

func doLogout(api *client.APIClient) int {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := api.Logout(ctx); err != nil {
		fail("logout: " + err.Error())
		return 1
	}
	ok("logged out")
	return 0
}

func doWhoami(api *client.APIClient) int {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := api.Me(ctx)
	if err != nil {
		fail("whoami: " + err.Error())
		return 1
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	return 0
}

// listFilters narrow the task view. Every subcommand that shows or
// indexes tasks binds the same three flags, so an index printed by `ls`
// resolves to the same task in `done` and `rm` as long as the filters
// match.
type listFilters struct {
	Status   string
	Priority string
	Search   string
}

func bindListFilters(fs *flag.FlagSet) *listFilters {
	f := &listFilters{}
	fs.StringVar(&f.Status, "status", "", "filter by status (incomplete|completed)")
	fs.StringVar(&f.Priority, "priority", "", "filter by priority (low|medium|high)")
	fs.StringVar(&f.Search, "search", "", "substring match on title/description")
	return f
}

// visibleTasks fetches and filters tasks exactly the way `ls` displays
// them. Status and priority narrow server-side; the search term is the
// mirror's local concern.
func visibleTasks(api *client.APIClient, f *listFilters) ([]client.Task, *client.Mirror, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	tasks, err := api.Tasks(ctx, f.Status, f.Priority)
	if err != nil {
		return nil, nil, err
	}

	mirror := client.NewMirror()
	mirror.SetTasks(tasks)
	mirror.Search = f.Search
	return mirror.Visible(), mirror, nil
}

func doList(api *client.APIClient, args []string) int {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	filters := bindListFilters(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	visible, mirror, err := visibleTasks(api, filters)
	if err != nil {
		fail("ls: " + err.Error())
		return 1
	}
	if len(visible) == 0 {
		fmt.Println("no tasks")
		return 0
	}

	stats := mirror.Stats()
	fmt.Printf("Tasks  ✔ %d  • %d  Total %d\n\n", stats.Completed, stats.Incomplete, stats.Total)
	for i, task := range visible {
		box := "☐"
		if task.Status == "completed" {
			box = "☑"
		}
		line := fmt.Sprintf("%2d. %s %s [%s]", i+1, box, task.Title, task.Priority)
		if task.Deadline != nil {
			line += " due " + task.Deadline.Format("2006-01-02")
		}
		fmt.Println(line)
	}
	return 0
}

func doAdd(api *client.APIClient, args []string) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	priority := fs.String("priority", "", "priority (low|medium|high)")
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		fail("usage: taskboard add <title...>")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	task, err := api.CreateTask(ctx, client.TaskDraft{
		Title:       title,
		Description: *desc,
		Priority:    *priority,
	})
	if err != nil {
		fail("add: " + err.Error())
		return 1
	}
	ok("added " + task.Title)
	return 0
}

func doToggle(api *client.APIClient, args []string) int {
	fs := flag.NewFlagSet("done", flag.ContinueOnError)
	filters := bindListFilters(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fail("usage: taskboard done [filters] <index>")
		return 2
	}
	task, code := taskAtIndex(api, filters, fs.Arg(0))
	if code != 0 {
		return code
	}

	status := "completed"
	if task.Status == "completed" {
		status = "incomplete"
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	updated, err := api.UpdateTask(ctx, task.ID, client.TaskPatch{Status: &status})
	if err != nil {
		fail("done: " + err.Error())
		return 1
	}
	ok(updated.Title + " is now " + updated.Status)
	return 0
}

func doRemove(api *client.APIClient, args []string) int {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	filters := bindListFilters(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fail("usage: taskboard rm [filters] <index>")
		return 2
	}
	task, code := taskAtIndex(api, filters, fs.Arg(0))
	if code != 0 {
		return code
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := api.DeleteTask(ctx, task.ID); err != nil {
		fail("rm: " + err.Error())
		return 1
	}
	ok("removed " + task.Title)
	return 0
}

func doTUI(api *client.APIClient) int {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	// One verify-me call decides the session state before the dashboard
	// opens.
	user, err := api.Me(ctx)
	if err != nil {
		fail("tui: " + err.Error())
		return 1
	}

	program := tea.NewProgram(tui.NewModel(api, user))
	if _, err := program.Run(); err != nil {
		fail("tui: " + err.Error())
		return 1
	}
	return 0
}

// taskAtIndex resolves a 1-based index to a task through the same
// filtered view `ls` prints. Indexing any other list would let
// `rm 1` target a task the user was never shown.
func taskAtIndex(api *client.APIClient, filters *listFilters, arg string) (client.Task, int) {
	userIndex, err := strconv.Atoi(arg)
	if err != nil {
		fail("not a number: " + arg)
		return client.Task{}, 2
	}

	visible, _, err := visibleTasks(api, filters)
	if err != nil {
		fail("list: " + err.Error())
		return client.Task{}, 1
	}
	if userIndex < 1 || userIndex > len(visible) {
		fail(fmt.Sprintf("index out of range: have %d, got %d", len(visible), userIndex))
		fmt.Fprintln(os.Stderr, "Hint: run `taskboard ls` with the same filters to see valid indexes")
		return client.Task{}, 2
	}
	return visible[userIndex-1], 0
}

func promptPassword() (string, bool) {
	return readPassword(os.Stdin)
}

// readPassword reads without echo when in is a terminal and falls back
// to a plain line read for piped input.
func readPassword(in *os.File) (string, bool) {
	fmt.Fprint(os.Stderr, "password: ")

	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fail("read password: " + err.Error())
			return "", false
		}
		return strings.TrimSpace(string(raw)), true
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		fail("read password: " + err.Error())
		return "", false
	}
	return strings.TrimSpace(line), true
}

func ok(msg string) {
	fmt.Println("✔ " + msg)
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "✖ "+msg)
}
