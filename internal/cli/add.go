package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"scoperag/internal/adapter/fs"
	"scoperag/internal/domain"
)

var (
	addScopes   []string
	addDir      string
	addIncludes []string
	addExcludes []string
	addName     string
)

var addCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Ingest a document into the index",
	Long: `Chunk a document, embed the chunks and add them to the vector index.
The acting agent becomes the owner; --scopes controls which other agents
may retrieve it. Reads stdin when no file is given.

Examples:
  scoperag add report.txt --agent alice --scopes read
  cat notes.md | scoperag add --name notes.md --agent alice
  scoperag add --dir ./docs --include '**/*.md' --agent alice`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringSliceVar(&addScopes, "scopes", nil, "scopes allowed to retrieve this document")
	addCmd.Flags().StringVar(&addDir, "dir", "", "ingest every matching file under a directory")
	addCmd.Flags().StringSliceVar(&addIncludes, "include", nil, "include globs for --dir (default **/*)")
	addCmd.Flags().StringSliceVar(&addExcludes, "exclude", nil, "exclude globs for --dir")
	addCmd.Flags().StringVar(&addName, "name", "", "document name for stdin input (default stdin)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	e, err := openEnv(GetConfig())
	if err != nil {
		return err
	}
	defer e.Close()

	principal, err := resolvePrincipal(e)
	if err != nil {
		return err
	}

	if addDir != "" {
		return addDirectory(e, principal)
	}
	return addSingle(e, principal, args)
}

func addSingle(e *env, principal domain.Principal, args []string) error {
	var name, content string

	if len(args) > 0 {
		data, err := fs.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		name = filepath.Base(args[0])
		content = data
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		name = addName
		if name == "" {
			name = "stdin"
		}
		content = string(data)
	}

	res, err := e.coord.Ingest(principal, name, fileType(name), content, addScopes)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %s\n", name)
	fmt.Printf("  Document ID: %s\n", res.Document.ID)
	fmt.Printf("  Chunks:      %d\n", res.ChunkCount)
	fmt.Printf("  Vectors:     %d\n", res.VectorCount)
	return nil
}

func addDirectory(e *env, principal domain.Principal) error {
	walker := fs.NewWalker(addIncludes, addExcludes)
	files, err := walker.Walk(addDir)
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", addDir, err)
	}
	if len(files) == 0 {
		fmt.Println("No matching files.")
		return nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	var ingested, skipped int
	var failures []string

	for _, file := range files {
		content, err := fs.ReadFile(file.Path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", file.RelPath, err))
			bar.Add(1)
			continue
		}

		_, err = e.coord.Ingest(principal, file.RelPath, fileType(file.RelPath), content, addScopes)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", file.RelPath, err))
			skipped++
		} else {
			ingested++
		}
		bar.Add(1)
	}

	fmt.Printf("\nIngest complete:\n")
	fmt.Printf("  Documents added: %d\n", ingested)
	fmt.Printf("  Skipped:         %d\n", skipped)
	if len(failures) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, f := range failures {
			fmt.Printf("  - %s\n", f)
		}
	}
	return nil
}

func fileType(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "txt"
	}
	return ext
}
