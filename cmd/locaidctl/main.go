package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/client"
	"github.com/MacklinHill1/neighborhood-help-app/internal/conversation"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/lock"
	"github.com/MacklinHill1/neighborhood-help-app/internal/workspace"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type cli struct {
	workspace string
	jsonOut   bool
	logger    *zap.Logger
	client    *client.Client
}

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	verboseFlag := flag.Bool("verbose", false, "log to stderr")
	flag.Usage = printUsage
	flag.Parse()

	name := workspace.Resolve(*workspaceFlag)
	if err := workspace.ValidateName(name); err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := &cli{workspace: name, jsonOut: *jsonFlag, logger: zap.NewNop()}
	if *verboseFlag {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fail(err)
		}
		c.logger = logger.With(zap.String("workspace", name))
	}
	defer func() { _ = c.logger.Sync() }()

	// workspaces does not need a daemon.
	if args[0] == "workspaces" {
		c.workspaces()
		return
	}

	cl, err := client.New(workspace.SocketPath(name))
	if err != nil {
		fail(fmt.Errorf("cannot connect to daemon for workspace %q: %w", name, err))
	}
	defer func() { _ = cl.Close() }()
	c.client = cl

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, args); err != nil {
		fail(err)
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if args[0] == "watch" {
		if len(args) != 2 {
			return errors.New("usage: locaidctl watch <counterpart-id>")
		}
		return c.watch(ctx, args[1])
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch args[0] {
	case "whoami":
		return c.whoami(ctx)
	case "signin":
		if len(args) < 2 || len(args) > 3 {
			return errors.New("usage: locaidctl signin <user-id> [email]")
		}
		email := ""
		if len(args) == 3 {
			email = args[2]
		}
		return c.signIn(ctx, args[1], email)
	case "signout":
		if err := c.client.SignOut(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	case "conversations":
		return c.conversations(ctx)
	case "thread":
		if len(args) != 2 {
			return errors.New("usage: locaidctl thread <counterpart-id>")
		}
		return c.thread(ctx, args[1])
	case "send":
		if len(args) < 3 {
			return errors.New("usage: locaidctl send <counterpart-id> <text...>")
		}
		return c.send(ctx, args[1], strings.Join(args[2:], " "))
	case "profile":
		return c.profile(ctx, args[1:])
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: locaidctl [--workspace <name>] [--json] [--verbose] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  whoami                          Show the signed-in user")
	fmt.Fprintln(os.Stderr, "  signin <user-id> [email]        Sign in")
	fmt.Fprintln(os.Stderr, "  signout                         Sign out")
	fmt.Fprintln(os.Stderr, "  conversations                   List neighbors you have messaged")
	fmt.Fprintln(os.Stderr, "  thread <id>                     Show the thread with a neighbor")
	fmt.Fprintln(os.Stderr, "  send <id> <text...>             Send a message")
	fmt.Fprintln(os.Stderr, "  watch <id>                      Stream new messages until interrupted")
	fmt.Fprintln(os.Stderr, "  profile get <id>                Show a profile")
	fmt.Fprintln(os.Stderr, "  profile set [--zip Z] [--bio B] [--avatar URL] <id> <full name...>")
	fmt.Fprintln(os.Stderr, "  workspaces                      List workspaces and their daemons")
}

func (c *cli) currentUser(ctx context.Context) (*domain.User, error) {
	u, err := c.client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("not signed in; run: locaidctl signin <user-id>")
	}
	return u, nil
}

func (c *cli) whoami(ctx context.Context) error {
	u, err := c.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if c.jsonOut {
		outputJSON(map[string]any{"user": u})
		return nil
	}
	if u == nil {
		fmt.Println("Signed out.")
		return nil
	}
	fmt.Printf("User:  %s\n", u.ID)
	if u.Email != "" {
		fmt.Printf("Email: %s\n", u.Email)
	}
	return nil
}

func (c *cli) signIn(ctx context.Context, userID, email string) error {
	u, err := c.client.SignIn(ctx, userID, email)
	if err != nil {
		return err
	}
	if c.jsonOut {
		outputJSON(u)
		return nil
	}
	fmt.Printf("Signed in as %s.\n", u.ID)
	return nil
}

// loadView returns a conversation view for the signed-in user, with its
// conversation list loaded.
func (c *cli) loadView(ctx context.Context) (*conversation.View, error) {
	u, err := c.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	v := conversation.NewView(c.client, c.logger)
	if err := v.SetUser(ctx, u); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *cli) conversations(ctx context.Context) error {
	v, err := c.loadView(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = v.Close() }()

	convs := v.Snapshot().Conversations
	if c.jsonOut {
		outputJSON(convs)
		return nil
	}
	if len(convs) == 0 {
		fmt.Println("No messages yet.")
		return nil
	}
	for _, cv := range convs {
		fmt.Printf("%-38s %-30s %s\n", cv.ID, cv.Name, cv.ZipCode)
	}
	return nil
}

func (c *cli) thread(ctx context.Context, counterpartID string) error {
	v, err := c.loadView(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = v.Close() }()

	if err := v.Select(ctx, counterpartID); err != nil {
		return err
	}
	st := v.Snapshot()
	if c.jsonOut {
		outputJSON(st.Messages)
		return nil
	}
	if len(st.Messages) == 0 {
		fmt.Println("No messages yet.")
		return nil
	}
	for _, m := range st.Messages {
		printMessage(m, st.User.ID)
	}
	return nil
}

func (c *cli) send(ctx context.Context, counterpartID, text string) error {
	u, err := c.currentUser(ctx)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("nothing to send")
	}
	m, err := c.client.InsertMessage(ctx, domain.NewMessage{
		SenderID:   u.ID,
		ReceiverID: counterpartID,
		Content:    text,
	})
	if err != nil {
		return err
	}
	if c.jsonOut {
		outputJSON(m)
		return nil
	}
	fmt.Printf("Sent %s.\n", m.ID)
	return nil
}

func (c *cli) watch(ctx context.Context, counterpartID string) error {
	hello, cancel := context.WithTimeout(ctx, requestTimeout)
	u, err := c.currentUser(hello)
	cancel()
	if err != nil {
		return err
	}

	ch, err := c.client.Subscribe(ctx, conversation.ChannelName(u.ID, counterpartID), domain.MessageInserts)
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()
	if !c.jsonOut {
		fmt.Fprintf(os.Stderr, "watching %s, Ctrl-C to stop\n", counterpartID)
	}

	for {
		select {
		case change, ok := <-ch.Changes():
			if !ok {
				return errors.New("feed closed by daemon")
			}
			m := change.Record
			if m == nil || !m.Between(u.ID, counterpartID) {
				continue
			}
			if c.jsonOut {
				outputJSON(m)
			} else {
				printMessage(*m, u.ID)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *cli) profile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: locaidctl profile <get|set> ...")
	}
	switch args[0] {
	case "get":
		if len(args) != 2 {
			return errors.New("usage: locaidctl profile get <id>")
		}
		p, err := c.client.GetProfile(ctx, args[1])
		if err != nil {
			return err
		}
		c.printProfile(p)
		return nil
	case "set":
		fs := flag.NewFlagSet("profile set", flag.ContinueOnError)
		zip := fs.String("zip", "", "zip code")
		bio := fs.String("bio", "", "short bio")
		avatar := fs.String("avatar", "", "avatar URL")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 2 {
			return errors.New("usage: locaidctl profile set [--zip Z] [--bio B] [--avatar URL] <id> <full name...>")
		}
		p, err := c.client.UpsertProfile(ctx, &domain.Profile{
			ID:        fs.Arg(0),
			FullName:  strings.Join(fs.Args()[1:], " "),
			ZipCode:   *zip,
			Bio:       *bio,
			AvatarURL: *avatar,
		})
		if err != nil {
			return err
		}
		c.printProfile(p)
		return nil
	default:
		return fmt.Errorf("unknown profile subcommand: %s", args[0])
	}
}

func (c *cli) printProfile(p *domain.Profile) {
	if c.jsonOut {
		outputJSON(p)
		return
	}
	name := strings.TrimSpace(p.FullName)
	if name == "" {
		name = domain.MemberName
	}
	fmt.Printf("ID:     %s\n", p.ID)
	fmt.Printf("Name:   %s\n", name)
	if p.ZipCode != "" {
		fmt.Printf("Zip:    %s\n", p.ZipCode)
	}
	if p.AvatarURL != "" {
		fmt.Printf("Avatar: %s\n", p.AvatarURL)
	}
	if p.Bio != "" {
		fmt.Printf("Bio:    %s\n", p.Bio)
	}
}

type workspaceInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
}

func (c *cli) workspaces() {
	names, err := workspace.List()
	if err != nil {
		fail(err)
	}
	infos := make([]workspaceInfo, 0, len(names))
	for _, n := range names {
		held, pid, err := lock.Probe(workspace.Dir(n))
		if err != nil {
			c.logger.Warn("probe lock failed", zap.String("name", n), zap.Error(err))
		}
		infos = append(infos, workspaceInfo{Name: n, Path: workspace.Dir(n), Running: held, PID: pid})
	}
	if c.jsonOut {
		outputJSON(infos)
		return
	}
	if len(infos) == 0 {
		fmt.Println("No workspaces found.")
		return
	}
	for _, w := range infos {
		state := "stopped"
		if w.Running {
			state = fmt.Sprintf("running, pid %d", w.PID)
		}
		marker := " "
		if w.Name == c.workspace {
			marker = "*"
		}
		fmt.Printf("%s %-20s %s (%s)\n", marker, w.Name, w.Path, state)
	}
}

func printMessage(m domain.Message, me string) {
	who := m.SenderID
	if who == me {
		who = "you"
	}
	fmt.Printf("%s  %-12s %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), who, m.Content)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
