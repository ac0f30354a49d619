package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	apiclient "github.com/aadish-25/todo-backend/pkg/api/client"
)

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
	Email       string `json:"email,omitempty"`
}

var buildVersion = "dev"

const requestTimeout = 15 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "register":
		err = commandRegister(args)
	case "login":
		err = commandLogin(args)
	case "logout":
		err = commandLogout()
	case "list", "ls":
		err = commandList(args)
	case "add":
		err = commandAdd(args)
	case "show":
		err = commandShow(args)
	case "done", "undone":
		err = commandDone(args, cmd == "done")
	case "edit":
		err = commandEdit(args)
	case "rm", "delete":
		err = commandDelete(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+apiclient.DefaultBaseURL+")")
	fs.Parse(args)

	if strings.TrimSpace(*username) == "" || strings.TrimSpace(*email) == "" {
		return errors.New("--username and --email are required")
	}
	secret, err := readSecret(*password)
	if err != nil {
		return err
	}
	cfg, _ := loadConfig()
	client, err := newClient(&cfg, *apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	user, err := client.Register(ctx, *username, *email, secret)
	if err != nil {
		return err
	}
	fmt.Printf("registered %s (%s)\n", user.Email, user.ID)
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+apiclient.DefaultBaseURL+")")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readSecret(*password)
	if err != nil {
		return err
	}
	cfg, _ := loadConfig()
	client, err := newClient(&cfg, *apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccessToken = resp.Token
	cfg.Email = resp.User.Email
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("login successful")
	return nil
}

func commandLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.AccessToken = ""
	cfg.Email = ""
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func commandList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	pending := fs.Bool("pending", false, "Only show incomplete todos")
	fs.Parse(args)

	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	todos, err := client.ListTodos(ctx, cfg.AccessToken)
	if err != nil {
		return err
	}
	if len(todos) == 0 {
		fmt.Println("no todos")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tNAME\tTITLE")
	for _, todo := range todos {
		if *pending && todo.IsCompleted {
			continue
		}
		mark := " "
		if todo.IsCompleted {
			mark = "x"
		}
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\n", todo.ID, mark, todo.Name, todo.Title)
	}
	return w.Flush()
}

func commandAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "Label")
	title := fs.String("title", "", "Title")
	content := fs.String("content", "", "Details (default \"No description\")")
	fs.Parse(args)

	if strings.TrimSpace(*title) == "" {
		return errors.New("--title is required")
	}
	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	todo, err := client.CreateTodo(ctx, cfg.AccessToken, apiclient.NewTodo{Name: *name, Title: *title, Content: *content})
	if err != nil {
		return err
	}
	fmt.Printf("created %s\n", todo.ID)
	return nil
}

func commandShow(args []string) error {
	id, err := singleID("show", args)
	if err != nil {
		return err
	}
	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	todo, err := client.GetTodo(ctx, cfg.AccessToken, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(todo)
}

func commandDone(args []string, completed bool) error {
	id, err := singleID("done", args)
	if err != nil {
		return err
	}
	return patch(id, apiclient.TodoPatch{IsCompleted: &completed})
}

func commandEdit(args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.String("id", "", "Todo identifier")
	name := fs.String("name", "", "New label")
	title := fs.String("title", "", "New title")
	content := fs.String("content", "", "New details")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}
	var p apiclient.TodoPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			p.Name = name
		case "title":
			p.Title = title
		case "content":
			p.Content = content
		}
	})
	if p.Name == nil && p.Title == nil && p.Content == nil {
		return errors.New("nothing to change; pass --name, --title or --content")
	}
	return patch(*id, p)
}

func commandDelete(args []string) error {
	id, err := singleID("rm", args)
	if err != nil {
		return err
	}
	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := client.DeleteTodo(ctx, cfg.AccessToken, id); err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func patch(id string, p apiclient.TodoPatch) error {
	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	todo, err := client.UpdateTodo(ctx, cfg.AccessToken, id, p)
	if err != nil {
		return err
	}
	fmt.Printf("updated %s\n", todo.ID)
	return nil
}

func singleID(cmd string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("usage: todo %s <todo-id>", cmd)
	}
	return strings.TrimSpace(args[0]), nil
}

func readSecret(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Print("Password: ")
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(bytes), nil
}

func newClient(cfg *cliConfig, apiBase string) (*apiclient.Client, error) {
	if strings.TrimSpace(apiBase) != "" {
		cfg.APIBaseURL = apiBase
	}
	return apiclient.New(cfg.APIBaseURL)
}

func authedClient() (*apiclient.Client, cliConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cliConfig{}, err
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, cliConfig{}, errors.New("not logged in; run `todo login` first")
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return nil, cliConfig{}, err
	}
	return client, cfg, nil
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: apiclient.DefaultBaseURL}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = apiclient.DefaultBaseURL
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	if override := strings.TrimSpace(os.Getenv("TODO_CLI_CONFIG")); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "todo-backend", "config.json"), nil
}

func printUsage() {
	fmt.Printf("todo CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	todo register --username alice --email user@example.com [--password secret] [--api http://localhost:4000]
	todo login --email user@example.com [--password secret] [--api http://localhost:4000]
	todo logout
	todo list [--pending]
	todo add --title <title> [--name <label>] [--content <details>]
	todo show <todo-id>
	todo done <todo-id>
	todo undone <todo-id>
	todo edit --id <todo-id> [--name <label>] [--title <title>] [--content <details>]
	todo rm <todo-id>
	todo version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
