// Command lumina is a CLI client for the Lumina companion service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/client"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/mutator"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/notify"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "lumina")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lumina")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

func clearToken() { _ = os.Remove(tokenPath()) }

// ---- client setup ----

// newClient builds the HTTP client; with auth=true the saved token is
// installed and its absence is a hard error.
func newClient(addr string, auth bool) (*client.Client, error) {
	guard := client.NewSessionGuard(clearToken)
	c := client.New(addr, guard)
	if auth {
		tok, err := loadToken()
		if err != nil {
			return nil, err
		}
		guard.Set(tok)
	}
	return c, nil
}

// stderrToasts surfaces optimistic-flow notifications on stderr so a rolled
// back mutation is visible even though the CLI prints final state only.
var stderrToasts = notify.Func(func(channel, message string) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", channel, message)
})

func newMutator(c *client.Client) *mutator.Mutator {
	return mutator.New(c, mutator.NewStore(), stderrToasts, zap.NewNop())
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// readLines splits a facts file into trimmed non-empty lines.
func readLines(b []byte) []string {
	out := []string{}
	for _, ln := range strings.Split(string(b), "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func usage() {
	fmt.Fprintf(os.Stderr, `lumina CLI
Usage:
  lumina -addr URL <cmd> [args]

Commands:
  version
  register   -email <email> -p <password> -name <full name>
  login      -email <email> -p <password>          (saves token)
  logout
  me
  facts                                        (list learned facts)
  set-facts  -file <path>                          ('-'=stdin, one per line)
  favorites  -set <text> | -clear
  chats
  chat       [-c <chat id>] -m <message>           (new chat when -c omitted)
  history    -c <chat id>
  rm-chat    -c <chat id>
  goals
  add-goal   -title <t> [-desc ..] [-duration n] [-unit days] [-priority medium]
  rm-goal    -id <goal id>
  check      -id <goal id> -i <subtask index>      (toggle completion)
  decompose  -id <goal id> [-type daily|weekly]
  quiz       -id <goal id>
  rewards
  redeem     -item <item id>
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the REST API.
func main() {
	addr := flag.String("addr", envDefault("LUMINA_ADDR", "http://localhost:8000"), "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), client.DefaultTimeout)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("lumina %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		email := fs.String("email", "", "email")
		p := fs.String("p", "", "password")
		name := fs.String("name", "", "full name")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -email and -p")
			os.Exit(1)
		}

		c, err := newClient(*addr, false)
		if err != nil {
			fail(err)
		}
		u, err := c.Register(ctx, *email, *p, *name)
		if err != nil {
			fail(err)
		}
		printJSON(u)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		p := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -email and -p")
			os.Exit(1)
		}

		c, err := newClient(*addr, false)
		if err != nil {
			fail(err)
		}
		tokens, err := c.Authenticate(ctx, *email, *p)
		if err != nil {
			fail(err)
		}
		if err := saveToken(tokens.AccessToken, tokens.ExpiresAt); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "logout":
		clearToken()
		fmt.Println("ok")

	case "me":
		c := mustAuth(*addr)
		p, err := c.Me(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(p)

	case "facts":
		c := mustAuth(*addr)
		facts, err := c.Facts(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(facts)

	case "set-facts":
		fs := flag.NewFlagSet("set-facts", flag.ExitOnError)
		file := fs.String("file", "", "facts file ('-'=stdin)")
		_ = fs.Parse(flag.Args()[1:])
		if *file == "" {
			fmt.Fprintln(os.Stderr, "need -file")
			os.Exit(1)
		}

		b, err := readAll(*file)
		if err != nil {
			fail(err)
		}
		c := mustAuth(*addr)
		if err := c.ReplaceFacts(ctx, readLines(b)); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "favorites":
		fs := flag.NewFlagSet("favorites", flag.ExitOnError)
		set := fs.String("set", "", "favorites text")
		clear := fs.Bool("clear", false, "clear favorites and reset coins")
		_ = fs.Parse(flag.Args()[1:])
		if *set == "" && !*clear {
			fmt.Fprintln(os.Stderr, "need -set or -clear")
			os.Exit(1)
		}

		c := mustAuth(*addr)
		var coins int64
		var err error
		if *clear {
			coins, err = c.ClearFavorites(ctx)
		} else {
			coins, err = c.SaveFavorites(ctx, *set)
		}
		if err != nil {
			fail(err)
		}
		printJSON(map[string]int64{"coins": coins})

	case "chats":
		c := mustAuth(*addr)
		chats, err := c.ListChats(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(chats)

	case "chat":
		fs := flag.NewFlagSet("chat", flag.ExitOnError)
		chatID := fs.String("c", "", "chat id (empty = new chat)")
		msg := fs.String("m", "", "message ('-'=stdin)")
		_ = fs.Parse(flag.Args()[1:])
		if *msg == "" {
			fmt.Fprintln(os.Stderr, "need -m")
			os.Exit(1)
		}
		text := *msg
		if text == "-" {
			b, err := readAll("-")
			if err != nil {
				fail(err)
			}
			text = strings.TrimSpace(string(b))
		}

		c := mustAuth(*addr)
		id := *chatID
		if id == "" {
			meta, err := c.CreateChat(ctx, "")
			if err != nil {
				fail(err)
			}
			id = meta.ID
		}
		reply, err := c.SendMessage(ctx, id, text)
		if err != nil {
			fail(err)
		}
		printJSON(reply)

	case "history":
		fs := flag.NewFlagSet("history", flag.ExitOnError)
		chatID := fs.String("c", "", "chat id")
		_ = fs.Parse(flag.Args()[1:])
		if *chatID == "" {
			fmt.Fprintln(os.Stderr, "need -c")
			os.Exit(1)
		}

		c := mustAuth(*addr)
		msgs, err := c.History(ctx, *chatID)
		if err != nil {
			fail(err)
		}
		printJSON(msgs)

	case "rm-chat":
		fs := flag.NewFlagSet("rm-chat", flag.ExitOnError)
		chatID := fs.String("c", "", "chat id")
		_ = fs.Parse(flag.Args()[1:])
		if *chatID == "" {
			fmt.Fprintln(os.Stderr, "need -c")
			os.Exit(1)
		}

		c := mustAuth(*addr)
		if err := c.DeleteChat(ctx, *chatID); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "goals":
		c := mustAuth(*addr)
		goals, err := c.ListGoals(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(goals)

	case "add-goal":
		fs := flag.NewFlagSet("add-goal", flag.ExitOnError)
		title := fs.String("title", "", "goal title")
		desc := fs.String("desc", "", "description")
		dur := fs.Int("duration", 7, "duration")
		unit := fs.String("unit", "days", "duration unit")
		prio := fs.String("priority", "medium", "priority")
		_ = fs.Parse(flag.Args()[1:])
		if *title == "" {
			fmt.Fprintln(os.Stderr, "need -title")
			os.Exit(1)
		}

		c := mustAuth(*addr)
		g, err := c.CreateGoal(ctx, client.GoalDraft{
			Title:        *title,
			Description:  *desc,
			Duration:     *dur,
			DurationUnit: *unit,
			Priority:     *prio,
		})
		if err != nil {
			fail(err)
		}
		printJSON(g)

	case "rm-goal":
		fs := flag.NewFlagSet("rm-goal", flag.ExitOnError)
		id := fs.Int64("id", 0, "goal id")
		_ = fs.Parse(flag.Args()[1:])
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		c := mustAuth(*addr)
		if err := c.DeleteGoal(ctx, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		id := fs.Int64("id", 0, "goal id")
		idx := fs.Int("i", -1, "subtask index (0-based)")
		_ = fs.Parse(flag.Args()[1:])
		if *id == 0 || *idx < 0 {
			fmt.Fprintln(os.Stderr, "need -id and -i")
			os.Exit(1)
		}

		m := newMutator(mustAuth(*addr))
		if err := m.LoadGoals(ctx); err != nil {
			fail(err)
		}
		if err := m.ToggleSubtask(ctx, *id, *idx); err != nil {
			fail(err)
		}
		g, ok := m.Store().Goal(*id)
		if !ok {
			fail(fmt.Errorf("goal %d not found", *id))
		}
		printJSON(g)

	case "decompose":
		fs := flag.NewFlagSet("decompose", flag.ExitOnError)
		id := fs.Int64("id", 0, "goal id")
		typ := fs.String("type", "daily", "breakdown type (daily|weekly)")
		_ = fs.Parse(flag.Args()[1:])
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		c := mustAuth(*addr)
		g, err := c.Decompose(ctx, *id, *typ)
		if err != nil {
			fail(err)
		}
		printJSON(g)

	case "quiz":
		fs := flag.NewFlagSet("quiz", flag.ExitOnError)
		id := fs.Int64("id", 0, "goal id")
		_ = fs.Parse(flag.Args()[1:])
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		c := mustAuth(*addr)
		out, err := c.Quiz(ctx, *id)
		if err != nil {
			fail(err)
		}
		if !out.Available {
			fmt.Fprintln(os.Stderr, "quiz locked: complete all subtasks first")
			os.Exit(1)
		}
		printJSON(out.Quiz)

	case "rewards":
		c := mustAuth(*addr)
		state, err := c.Rewards(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(state)

	case "redeem":
		fs := flag.NewFlagSet("redeem", flag.ExitOnError)
		itemID := fs.String("item", "", "catalog item id")
		_ = fs.Parse(flag.Args()[1:])
		if *itemID == "" {
			fmt.Fprintln(os.Stderr, "need -item")
			os.Exit(1)
		}

		m := newMutator(mustAuth(*addr))
		if err := m.LoadRewards(ctx); err != nil {
			fail(err)
		}
		item, ok := findItem(m.Store().Rewards().Items, *itemID)
		if !ok {
			fail(fmt.Errorf("no catalog item %q", *itemID))
		}
		if err := m.Redeem(ctx, item); err != nil {
			fail(err)
		}
		printJSON(map[string]int64{"new_balance": m.Store().Rewards().Coins})

	default:
		usage()
	}
}

func findItem(items []model.RewardItem, id string) (model.RewardItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.RewardItem{}, false
}

func mustAuth(addr string) *client.Client {
	c, err := newClient(addr, true)
	if err != nil {
		fail(err)
	}
	return c
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fail(err error) {
	var reqErr *client.RequestError
	if errors.As(err, &reqErr) {
		fmt.Fprintf(os.Stderr, "request error: status=%d msg=%s\n", reqErr.Status, reqErr.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
