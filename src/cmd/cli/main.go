package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"element-digitizer/src/annotation"
	"element-digitizer/src/config"
	"element-digitizer/src/store"
)

type cliOptions struct {
	validate   bool
	list       bool
	module     string
	datasetDir string
	jsonOutput bool
	verbose    bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"element-digitizer-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "element-digitizer-cli",
		Short:         "Inspect and validate a UI element dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.OutOrStdout(), *opts)
		},
	}

	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Validate every record and screenshot in the dataset")
	cmd.Flags().BoolVar(&opts.list, "list", false, "List dataset records")
	cmd.Flags().StringVar(&opts.module, "module", "", "Restrict --list to one module")
	cmd.Flags().StringVar(&opts.datasetDir, "dataset", "", "Dataset directory (defaults to DATASET_DIR)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	return cmd
}

func runWithOptions(out io.Writer, opts cliOptions) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{DatasetDirOverride: opts.datasetDir})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Dataset directory: %s\n", cfg.DatasetDir)
	}

	st := store.New(cfg.DatasetDir)

	switch {
	case opts.validate:
		return validateDataset(out, st, opts)
	case opts.list:
		return listDataset(out, st, opts)
	default:
		return fmt.Errorf("nothing to do: pass --validate or --list")
	}
}

// problem is one validation finding, keyed by the offending file.
type problem struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

func validateDataset(out io.Writer, st *store.Store, opts cliOptions) error {
	var problems []problem
	checked := 0

	err := st.Walk(func(module, jsonPath string, rec annotation.Record) error {
		checked++
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "[verbose] Checking %s\n", jsonPath)
		}

		data, err := os.ReadFile(jsonPath)
		if err != nil {
			problems = append(problems, problem{jsonPath, err.Error()})
			return nil
		}
		for _, verr := range annotation.ValidateRaw(data) {
			problems = append(problems, problem{jsonPath, verr.Error()})
		}

		problems = append(problems, checkScreenshot(st.Root(), jsonPath, rec)...)
		return nil
	})
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		report := struct {
			Checked  int       `json:"checked"`
			Problems []problem `json:"problems"`
		}{checked, problems}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, p := range problems {
			fmt.Fprintf(out, "%s: %s\n", p.File, p.Message)
		}
		fmt.Fprintf(out, "%d records checked, %d problems\n", checked, len(problems))
	}

	if len(problems) != 0 {
		return fmt.Errorf("dataset validation failed with %d problems", len(problems))
	}
	return nil
}

// checkScreenshot verifies the referenced PNG exists, decodes, and matches
// the record's bounding box dimensions.
func checkScreenshot(root, jsonPath string, rec annotation.Record) []problem {
	shotPath := filepath.Join(root, "screenshots", rec.ElementID+".png")
	f, err := os.Open(shotPath)
	if err != nil {
		return []problem{{jsonPath, fmt.Sprintf("screenshot missing: %v", err)}}
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return []problem{{jsonPath, fmt.Sprintf("screenshot not decodable: %v", err)}}
	}

	box := rec.LocationInfo.BoundingBox
	if img.Bounds().Dx() != box.Width() || img.Bounds().Dy() != box.Height() {
		return []problem{{jsonPath, fmt.Sprintf(
			"screenshot is %dx%d but bounding box %s is %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), box, box.Width(), box.Height())}}
	}
	return nil
}

func listDataset(out io.Writer, st *store.Store, opts cliOptions) error {
	modules := []string{opts.module}
	if opts.module == "" {
		var err error
		modules, err = st.Modules()
		if err != nil {
			return err
		}
	}

	type listedRecord struct {
		Module string `json:"module"`
		annotation.Record
	}
	var listed []listedRecord
	for _, module := range modules {
		records, err := st.List(module)
		if err != nil {
			return err
		}
		for _, rec := range records {
			listed = append(listed, listedRecord{Module: module, Record: rec})
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listed)
	}

	for _, lr := range listed {
		fmt.Fprintf(out, "%s/%s\t%s\t%s\t%s\n",
			lr.Module, lr.ElementID, lr.ElementType, lr.LocationInfo.BoundingBox, lr.ActionInfo.DefaultAction)
	}
	fmt.Fprintf(out, "%d records\n", len(listed))
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	longFlags := []string{"validate", "list", "module", "dataset", "json", "verbose"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range longFlags {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "--" + name + "=" + arg[len(name)+2:]
			}
		}
	}

	return normalized
}
