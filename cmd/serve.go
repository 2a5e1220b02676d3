package cmd

import (
	"github.com/khrees2412/prospector/internal/api"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Serve the REST API for resumes, leads and applications until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		cfg := a.Config.Server
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if a.Config.LLM.APIKey == "" {
			a.Logger.Warn("LLM API key not configured, analyze and promote requests will fail")
		}
		return api.NewServer(cfg, newServices(a), a.Logger).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from server.addr)")
}
