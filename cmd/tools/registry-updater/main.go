// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"uni-directory/pkg/registry"
)

var registryPath string

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	addCmd := flag.NewFlagSet("add", flag.ContinueOnError)
	setCmd := flag.NewFlagSet("set-values", flag.ContinueOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	listCmd := flag.NewFlagSet("list", flag.ContinueOnError)

	for _, fs := range []*flag.FlagSet{addCmd, setCmd, validateCmd, listCmd} {
		fs.StringVar(&registryPath, "path", "configs/filter-registry.json", "Path to registry file")
	}

	// Add command flags
	key := addCmd.String("key", "", "Query parameter name (e.g., award_level)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Award Level)")
	collection := addCmd.String("collection", registry.CollectionProgrammes, "Listing the filter belongs to")
	source := addCmd.String("source", registry.SourceStatic, "Value source (static, collection, derived)")
	allLabel := addCmd.String("allLabel", "", "Label of the empty option (e.g., All Levels)")
	values := addCmd.String("values", "", "Comma-separated values for static fields")
	valueCollection := addCmd.String("valueCollection", "", "Collection supplying values for collection fields")

	// Set-values command flags
	setKey := setCmd.String("key", "", "Filter key to update")
	setCollection := setCmd.String("collection", registry.CollectionProgrammes, "Listing the filter belongs to")
	setValues := setCmd.String("values", "", "Comma-separated values")

	switch command {
	case "add":
		if err := addCmd.Parse(args); err != nil {
			return err
		}
		if *key == "" || *displayName == "" {
			addCmd.Usage()
			return errors.New("key and displayName are required for add")
		}
		field := registry.FilterField{
			Key:             *key,
			DisplayName:     *displayName,
			Collection:      *collection,
			Source:          *source,
			AllLabel:        *allLabel,
			Values:          splitValues(*values),
			ValueCollection: *valueCollection,
		}
		if err := addField(field); err != nil {
			return fmt.Errorf("adding field: %w", err)
		}
		fmt.Printf("Added filter: %s/%s\n", field.Collection, field.Key)

	case "set-values":
		if err := setCmd.Parse(args); err != nil {
			return err
		}
		if *setKey == "" || *setValues == "" {
			setCmd.Usage()
			return errors.New("key and values are required for set-values")
		}
		if err := updateValues(*setCollection, *setKey, splitValues(*setValues)); err != nil {
			return fmt.Errorf("updating values: %w", err)
		}
		fmt.Printf("Updated values of %s/%s\n", *setCollection, *setKey)

	case "validate":
		if err := validateCmd.Parse(args); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Printf("Registry validation passed. Found %d filters.\n", len(reg.Fields))

	case "list":
		if err := listCmd.Parse(args); err != nil {
			return err
		}
		reg, err := registry.LoadOrDefault(existingPath(registryPath))
		if err != nil {
			return err
		}
		for _, f := range reg.Fields {
			fmt.Printf("%-13s %-16s %-10s %s\n", f.Collection, f.Key, f.Source, strings.Join(f.Values, ", "))
		}

	case "help":
		help()
	default:
		help()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// addField appends to the registry file, seeding it with the defaults when
// the file does not exist yet.
func addField(field registry.FilterField) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = registry.Default()
	}
	if err := reg.AddField(field); err != nil {
		return err
	}
	return reg.Save(registryPath)
}

func updateValues(collection, key string, values []string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.SetValues(collection, key, values); err != nil {
		return err
	}
	return reg.Save(registryPath)
}

func existingPath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func splitValues(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  add         Add a filter field to the registry
  set-values  Replace the values of a static filter
  validate    Validate the registry file
  list        Print the filters (the built-in defaults when the file is missing)
  help        Show this help message

Examples:
  registry-updater add -key faculty -displayName Faculty -allLabel "All Faculties" -values "Science,Law"
  registry-updater set-values -key study_mode -values "Full Time,Part Time"
  registry-updater validate -path configs/filter-registry.json

Use 'registry-updater <command> -h' for more information about a command.`)
}
