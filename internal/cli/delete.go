package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and its vectors",
	Long: `Remove a document's record and every vector indexed for it. Only the
owner can delete a document; the index is rebuilt without its chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	e, err := openEnv(GetConfig())
	if err != nil {
		return err
	}
	defer e.Close()

	principal, err := resolvePrincipal(e)
	if err != nil {
		return err
	}

	doc, err := e.coord.Delete(principal, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %q (%d vectors removed)\n", doc.Filename, len(doc.VectorIDs))
	return nil
}
