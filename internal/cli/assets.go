package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"
)

// moveCmd reorders one asset of a bucket
type moveCmd struct {
	app *App
	bucketFlags
	id     string
	dir    string
	target string
}

func (*moveCmd) Name() string     { return "move" }
func (*moveCmd) Synopsis() string { return "move an asset up, down or onto another asset" }
func (*moveCmd) Usage() string {
	return `finai move [-m <market>] [-c <category>] -id <asset> (-dir up|down | -target <asset>)

  Moves an asset one position in the visible list, or to the position of the target asset.
  The new order is saved and survives restarts.
`
}

func (c *moveCmd) SetFlags(f *flag.FlagSet) {
	c.bucketFlags.set(f)
	f.StringVar(&c.id, "id", "", "Asset to move")
	f.StringVar(&c.dir, "dir", "", "Direction: up or down")
	f.StringVar(&c.target, "target", "", "Drop the asset at the position of this asset")
}

func (c *moveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, err := c.path()
	if err != nil || c.id == "" || (c.dir == "") == (c.target == "") {
		fmt.Fprintln(c.app.Err, c.Usage())
		return subcommands.ExitUsageError
	}

	var resp struct {
		Moved bool     `json:"moved"`
		Order []string `json:"order"`
	}
	req := map[string]string{"id": c.id, "direction": c.dir, "targetId": c.target}
	if err := c.app.call(ctx, http.MethodPost, path+"/move", req, &resp); err != nil {
		return c.app.fail(err)
	}

	if !resp.Moved {
		fmt.Fprintln(c.app.Out, "Order unchanged.")
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(c.app.Out, "New order: %s\n", strings.Join(resp.Order, ", "))
	return subcommands.ExitSuccess
}

// selectCmd toggles assets in the bulk-delete selection
type selectCmd struct {
	app *App
	bucketFlags
	all  bool
	none bool
}

func (*selectCmd) Name() string     { return "select" }
func (*selectCmd) Synopsis() string { return "toggle assets in the selection of a category" }
func (*selectCmd) Usage() string {
	return `finai select [-m <market>] [-c <category>] [-all | -none | <asset>...]

  Toggles each named asset, or selects/deselects every visible asset of the category.
`
}

func (c *selectCmd) SetFlags(f *flag.FlagSet) {
	c.bucketFlags.set(f)
	f.BoolVar(&c.all, "all", false, "Select every visible asset")
	f.BoolVar(&c.none, "none", false, "Clear the selection")
}

type selectResponse struct {
	Selected    []string `json:"selected"`
	AllSelected bool     `json:"allSelected"`
}

func (c *selectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, err := c.path()
	if err != nil || (c.all && c.none) || ((c.all || c.none) == (f.NArg() > 0)) {
		fmt.Fprintln(c.app.Err, c.Usage())
		return subcommands.ExitUsageError
	}

	var resp selectResponse
	if c.all || c.none {
		all := c.all
		if err := c.app.call(ctx, http.MethodPost, path+"/select", map[string]any{"all": all}, &resp); err != nil {
			return c.app.fail(err)
		}
	}
	for _, id := range f.Args() {
		if err := c.app.call(ctx, http.MethodPost, path+"/select", map[string]any{"id": id}, &resp); err != nil {
			return c.app.fail(err)
		}
	}

	fmt.Fprintf(c.app.Out, "%d selected: %s\n", len(resp.Selected), strings.Join(resp.Selected, ", "))
	return subcommands.ExitSuccess
}

// deleteSelectedCmd deletes the selection after confirmation
type deleteSelectedCmd struct {
	app *App
	bucketFlags
	yes bool
}

func (*deleteSelectedCmd) Name() string     { return "delete-selected" }
func (*deleteSelectedCmd) Synopsis() string { return "delete every selected asset of a category" }
func (*deleteSelectedCmd) Usage() string {
	return `finai delete-selected [-m <market>] [-c <category>] [-y]

  Deletes every selected asset after confirmation. The selection is cleared afterwards,
  whether the deletes succeeded or not.
`
}

func (c *deleteSelectedCmd) SetFlags(f *flag.FlagSet) {
	c.bucketFlags.set(f)
	f.BoolVar(&c.yes, "y", false, "Do not ask for confirmation")
}

func (c *deleteSelectedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, err := c.path()
	if err != nil {
		fmt.Fprintln(c.app.Err, err)
		return subcommands.ExitUsageError
	}

	if !c.yes {
		err := c.app.call(ctx, http.MethodDelete, path+"/selected", nil, nil)
		var conflict *apiError
		if !errors.As(err, &conflict) || conflict.Status != http.StatusConflict {
			if err == nil {
				err = errors.New("server deleted without confirmation")
			}
			return c.app.fail(err)
		}

		var pending struct {
			Pending int `json:"pending"`
		}
		_ = json.Unmarshal(conflict.Body, &pending)
		if !c.app.confirm(fmt.Sprintf("Delete %d selected assets?", pending.Pending)) {
			fmt.Fprintln(c.app.Out, "Cancelled.")
			return subcommands.ExitSuccess
		}
	}

	var resp struct {
		Succeeded int    `json:"succeeded"`
		Failed    int    `json:"failed"`
		Message   string `json:"message"`
	}
	if err := c.app.call(ctx, http.MethodDelete, path+"/selected?confirm=true", nil, &resp); err != nil {
		return c.app.fail(err)
	}
	fmt.Fprintln(c.app.Out, resp.Message)
	if resp.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// importCmd uploads a statement for the backend to turn into assets
type importCmd struct {
	app *App
	bucketFlags
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import assets from a statement file" }
func (*importCmd) Usage() string {
	return `finai import [-m <market>] [-c <category>] <file>

  Uploads a statement (e.g. a fixed-deposit PDF). Created assets appear after a reload.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	c.bucketFlags.set(f)
	c.category = "fixedDeposits"
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, err := c.path()
	if err != nil || f.NArg() != 1 {
		fmt.Fprintln(c.app.Err, c.Usage())
		return subcommands.ExitUsageError
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		return c.app.fail(err)
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(f.Arg(0)))
	if err != nil {
		return c.app.fail(err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return c.app.fail(err)
	}
	if err := mw.Close(); err != nil {
		return c.app.fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.app.Server, "/")+path+"/import", &body)
	if err != nil {
		return c.app.fail(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Message      string `json:"message"`
		CreatedCount int    `json:"createdCount"`
	}
	if err := c.app.send(req, &resp); err != nil {
		return c.app.fail(err)
	}
	fmt.Fprintf(c.app.Out, "%s (%d created)\n", resp.Message, resp.CreatedCount)
	return subcommands.ExitSuccess
}

// refreshCmd reloads assets or refreshes stock prices
type refreshCmd struct {
	app    *App
	prices bool
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "reload every asset from the backend" }
func (*refreshCmd) Usage() string {
	return `finai refresh [-prices]

  Reloads every asset from the backend, or with -prices asks the backend to fetch current
  stock prices and merges the new stock values.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.prices, "prices", false, "Refresh stock prices only")
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path := "/api/view/refresh"
	if c.prices {
		path = "/api/view/refresh-prices"
	}

	var v netWorthView
	if err := c.app.call(ctx, http.MethodPost, path, nil, &v); err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(renderNetWorth(v))
	return subcommands.ExitSuccess
}
