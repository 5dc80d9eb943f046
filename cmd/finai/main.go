package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/bharadwajkrishnan/finai/internal/cli"
	"github.com/bharadwajkrishnan/finai/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	server := flag.String("server", "http://localhost:"+cfg.HTTPPort, "Address of the tracker server")
	token := flag.String("token", cfg.APIToken, "API token of the tracker server")
	plain := flag.Bool("plain", false, "Print raw markdown instead of rendering it")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	app := cli.DefaultApp()
	app.DBDriver = cfg.DBDriver
	app.DBConnStr = cfg.DBConnStr
	cli.Register(commander, app)

	flag.Parse()
	app.Server = *server
	app.Token = *token
	app.Plain = *plain

	os.Exit(int(commander.Execute(context.Background())))
}
