// inferctl is a small operator CLI for a running inferd instance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	cl := &client{}

	root := &cobra.Command{
		Use:           "inferctl",
		Short:         "Operate a running inferd gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cl.server, "server", envOr("INFERD_SERVER", "http://localhost:8080"), "Base URL of the inferd server")
	root.PersistentFlags().Int64Var(&cl.tenant, "tenant", 0, "Tenant id sent as X-Tenant-ID")

	statusCmd := &cobra.Command{Use: "status", Short: "Show loaded models, adapter cache and queue depth", RunE: func(cmd *cobra.Command, args []string) error {
		return cl.getJSON("/status")
	}}

	docCmd := &cobra.Command{Use: "doc", Short: "Document operations"}
	docCmd.AddCommand(
		&cobra.Command{Use: "ingest <document-id>", Short: "Queue a document for (re-)ingestion", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return cl.postJSON("/v1/documents", map[string]any{"document_id": id})
		}},
		&cobra.Command{Use: "get <document-id>", Short: "Show a document's ingestion status", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return cl.getJSON(fmt.Sprintf("/v1/documents/%d", id))
		}},
		&cobra.Command{Use: "purge <document-id>", Short: "Delete all stored chunks for a document", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return cl.delete(fmt.Sprintf("/v1/documents/%d", id))
		}},
	)

	var inferAdapters []int64
	var inferRAG bool
	var inferModel int64
	inferCmd := &cobra.Command{Use: "infer <input>", Short: "Run a completion", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{"model_id": inferModel, "input": args[0], "use_rag": inferRAG}
		if len(inferAdapters) > 0 {
			body["adapter_ids"] = inferAdapters
		}
		return cl.postJSON("/v1/infer", body)
	}}
	inferCmd.Flags().Int64Var(&inferModel, "model", 0, "Fine-tuned model id")
	inferCmd.Flags().Int64SliceVar(&inferAdapters, "adapter", nil, "Adapter id to compose (repeatable)")
	inferCmd.Flags().BoolVar(&inferRAG, "rag", false, "Retrieve context before generating")

	var searchTopK int
	searchCmd := &cobra.Command{Use: "search <query>", Short: "Tenant-scoped similarity search", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return cl.postJSON("/v1/search", map[string]any{"query": args[0], "top_k": searchTopK})
	}}
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 3, "Number of results")

	adapterCmd := &cobra.Command{Use: "adapter", Short: "Adapter operations"}
	var regModel int64
	var regName, regWeights string
	adapterRegister := &cobra.Command{Use: "register", Short: "Register trained LoRA weights for a model", RunE: func(cmd *cobra.Command, args []string) error {
		return cl.postJSON("/v1/adapters", map[string]any{"model_id": regModel, "name": regName, "weights_path": regWeights})
	}}
	adapterRegister.Flags().Int64Var(&regModel, "model", 0, "Fine-tuned model id")
	adapterRegister.Flags().StringVar(&regName, "name", "", "Adapter name")
	adapterRegister.Flags().StringVar(&regWeights, "weights", "", "Source path of trained weights")
	adapterUnload := &cobra.Command{Use: "unload <model-id> <adapter-id>", Short: "Evict an adapter from the runtime", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
		mid, err := parseID(args[0])
		if err != nil {
			return err
		}
		aid, err := parseID(args[1])
		if err != nil {
			return err
		}
		return cl.delete(fmt.Sprintf("/v1/adapters/%d/%d", mid, aid))
	}}
	adapterCmd.AddCommand(adapterRegister, adapterUnload)

	root.AddCommand(statusCmd, docCmd, inferCmd, searchCmd, adapterCmd)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
