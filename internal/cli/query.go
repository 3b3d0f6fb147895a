package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search accessible documents",
	Long: `Embed the query text and return the nearest chunks from documents the
acting agent can see, ranked by similarity.

Examples:
  scoperag query -q "credential rotation" --agent alice
  scoperag query -q "scope checks" --agent bob -k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	e, err := openEnv(GetConfig())
	if err != nil {
		return err
	}
	defer e.Close()

	principal, err := resolvePrincipal(e)
	if err != nil {
		return err
	}

	topK := GetConfig().Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	out, err := e.coord.Query(principal, queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Total == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range out.Results {
		fmt.Printf("%d. %s (chunk %d, score %.4f)\n", i+1, r.Filename, r.ChunkIndex, r.Score)
		fmt.Printf("   %s\n\n", r.ChunkText)
	}
	return nil
}
