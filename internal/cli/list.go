package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents visible to the acting agent",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(GetConfig())
	if err != nil {
		return err
	}
	defer e.Close()

	principal, err := resolvePrincipal(e)
	if err != nil {
		return err
	}

	docs, err := e.coord.List(principal)
	if err != nil {
		return err
	}

	if listJSON {
		type docOut struct {
			ID            string   `json:"id"`
			Filename      string   `json:"filename"`
			OwnerID       string   `json:"owner_id"`
			AllowedScopes []string `json:"allowed_scopes"`
			Chunks        int      `json:"chunks"`
			SizeBytes     int      `json:"size_bytes"`
		}
		out := make([]docOut, len(docs))
		for i, d := range docs {
			out[i] = docOut{
				ID:            d.ID,
				Filename:      d.Filename,
				OwnerID:       d.OwnerID,
				AllowedScopes: d.AllowedScopes,
				Chunks:        len(d.VectorIDs),
				SizeBytes:     d.SizeBytes,
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(docs) == 0 {
		fmt.Println("No accessible documents.")
		return nil
	}

	for _, d := range docs {
		scopes := strings.Join(d.AllowedScopes, ",")
		if scopes == "" {
			scopes = "-"
		}
		fmt.Printf("%s  %-24s owner=%s scopes=%s chunks=%d\n",
			d.ID, d.Filename, d.OwnerID, scopes, len(d.VectorIDs))
	}
	return nil
}
