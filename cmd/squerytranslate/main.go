// Command squerytranslate is a small CLI front-end over the translation
// pipeline: point it at a registry (CSV base plus an optional YAML
// overlay, optionally refreshed from a live SQL Server database) and a
// URL, and it prints the resulting SELECT statement.
package main

import (
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/imsquery/squerytranslate/internal/registry"
	"github.com/imsquery/squerytranslate/internal/translate"
	"github.com/imsquery/squerytranslate/loader/csvloader"
	"github.com/imsquery/squerytranslate/loader/mssqlintrospect"
	"github.com/imsquery/squerytranslate/loader/overlay"
	"github.com/imsquery/squerytranslate/util"
)

type options struct {
	EntitiesCSV string `long:"entities-csv" description:"CSV of entity,table,alias rows" value-name:"path" required:"true"`
	ColumnsCSV  string `long:"columns-csv" description:"CSV of table,column rows" value-name:"path"`
	OverlayYAML string `long:"overlay" description:"YAML overlay of nav overrides, column renames and resource entity types" value-name:"path"`

	Host     string `short:"h" long:"host" description:"SQL Server host to introspect columns/foreign keys from" value-name:"host_name"`
	Port     uint   `short:"p" long:"port" description:"Port for --host" value-name:"port_num" default:"1433"`
	User     string `short:"U" long:"user" description:"SQL Server user name" value-name:"user_name" default:"sa"`
	Password string `short:"P" long:"password" description:"SQL Server user password, overridden by $MSSQL_PWD" value-name:"password"`
	DbName   string `long:"db" description:"Database name for --host" value-name:"db_name"`
	Prompt   bool   `long:"password-prompt" description:"Force password prompt instead of --password/$MSSQL_PWD"`

	Debug   bool `long:"debug" description:"Pretty-print the parameter table alongside the SQL"`
	Help    bool `long:"help" description:"Show this help"`
	Version bool `long:"version" description:"Show this version"`
}

var version string

func main() {
	util.InitSlog()

	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] url"
	args, err := parser.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	if len(args) != 1 {
		fmt.Print("Exactly one url argument is required!\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	reg, err := buildRegistry(opts)
	if err != nil {
		log.Fatal(err)
	}

	result, err := translate.Translate(args[0], reg)
	if err != nil {
		log.Fatal(err)
	}

	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Println(result.SQL)

	if opts.Debug {
		printer := pp.New()
		printer.Println(result.Parameters)
	}
}

func buildRegistry(opts options) (*registry.Registry, error) {
	b := registry.NewBuilder()

	if err := csvloader.LoadEntities(b, opts.EntitiesCSV); err != nil {
		return nil, err
	}
	if opts.ColumnsCSV != "" {
		if err := csvloader.LoadColumns(b, opts.ColumnsCSV); err != nil {
			return nil, err
		}
	}
	if opts.OverlayYAML != "" {
		if err := overlay.Load(b, opts.OverlayYAML); err != nil {
			return nil, err
		}
	}

	if opts.Host != "" {
		if err := introspect(b, opts); err != nil {
			return nil, err
		}
	}

	return b.Freeze(), nil
}

func introspect(b *registry.Builder, opts options) error {
	password, ok := os.LookupEnv("MSSQL_PWD")
	if !ok {
		password = opts.Password
	}
	if opts.Prompt {
		fmt.Print("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return err
		}
		password = string(pass)
	}

	loader, err := mssqlintrospect.Open(mssqlintrospect.Config{
		Host:     opts.Host,
		Port:     int(opts.Port),
		User:     opts.User,
		Password: password,
		DbName:   opts.DbName,
	})
	if err != nil {
		return err
	}
	defer loader.Close()

	tables, err := loader.Tables()
	if err != nil {
		return err
	}
	if err := loader.LoadColumns(b, tables); err != nil {
		return err
	}
	return loader.LoadForeignKeys(b, tables)
}
