// Package cli implements the finai terminal client.
// Every command talks to a running tracker server over its HTTP API, so selections and filters
// live in the server session and survive between invocations.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// ErrSessionExpired is returned when the server reports a forced logout
var ErrSessionExpired = errors.New("session expired, run 'finai login' with fresh tokens")

// App holds what every command shares
type App struct {
	Server string
	Token  string
	Plain  bool // print raw markdown instead of rendering it

	// DBDriver and DBConnStr locate the token store for login
	DBDriver  string
	DBConnStr string

	Out  io.Writer
	Err  io.Writer
	In   io.Reader
	HTTP *http.Client
}

// Register adds every finai command to the commander
func Register(c *subcommands.Commander, app *App) {
	c.Register(&networthCmd{app: app}, "view")
	c.Register(&listCmd{app: app}, "view")
	c.Register(&filterCmd{app: app}, "view")

	c.Register(&moveCmd{app: app}, "assets")
	c.Register(&selectCmd{app: app}, "assets")
	c.Register(&deleteSelectedCmd{app: app}, "assets")
	c.Register(&importCmd{app: app}, "assets")
	c.Register(&refreshCmd{app: app}, "assets")

	c.Register(&chatCmd{app: app}, "assistant")
	c.Register(&loginCmd{app: app}, "session")
}

// apiError is an error answer of the tracker API
type apiError struct {
	Status   int
	Message  string
	Redirect string
	Body     []byte
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d", e.Status)
	}
	return e.Message
}

// call sends a JSON request to the tracker API and decodes the answer into out.
// Non-2xx answers are returned as *apiError, or ErrSessionExpired for a forced logout.
func (a *App) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(a.Server, "/")+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, out)
}

func (a *App) send(req *http.Request, out any) error {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	client := a.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach the tracker server at %s: %w", a.Server, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var e struct {
			Error    string `json:"error"`
			Redirect string `json:"redirect"`
		}
		_ = json.Unmarshal(payload, &e)
		if resp.StatusCode == http.StatusUnauthorized && e.Redirect != "" {
			return ErrSessionExpired
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error, Redirect: e.Redirect, Body: payload}
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// printMarkdown renders markdown to the terminal, or prints it as is in plain mode
func (a *App) printMarkdown(md string) {
	if !a.Plain {
		r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(100))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				fmt.Fprint(a.Out, out)
				return
			}
		}
	}
	fmt.Fprint(a.Out, md)
}

// fail prints err and returns the matching exit status
func (a *App) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(a.Err, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// confirm asks a yes/no question on the input stream; only y or yes accepts
func (a *App) confirm(question string) bool {
	fmt.Fprintf(a.Out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(a.In).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// bucketFlags are the -m and -c flags shared by the per-bucket commands
type bucketFlags struct {
	market   string
	category string
}

func (b *bucketFlags) set(f *flag.FlagSet) {
	f.StringVar(&b.market, "m", string(domain.MarketIndia), "Market: india or europe")
	f.StringVar(&b.category, "c", string(domain.CategoryStocks), "Category: stocks, bankAccounts, mutualFunds, fixedDeposits, insurancePolicies or commodities")
}

// path returns the API path of the bucket, validating both values
func (b *bucketFlags) path() (string, error) {
	m, err := domain.ParseMarket(b.market)
	if err != nil {
		return "", err
	}
	c, err := domain.ParseCategory(b.category)
	if err != nil {
		return "", err
	}
	return "/api/view/" + url.PathEscape(string(m)) + "/" + url.PathEscape(string(c)), nil
}

// DefaultApp builds an App writing to the process standard streams
func DefaultApp() *App {
	return &App{
		Out: os.Stdout,
		Err: os.Stderr,
		In:  os.Stdin,
	}
}
