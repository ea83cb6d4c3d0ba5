// ABOUTME: tui command: opens the interactive interface on a chosen start page
// ABOUTME: Wires the session, dashboard and uploader into internal/tui

package main

import (
	"github.com/spf13/cobra"

	"github.com/2389/legisbot/internal/admin"
	"github.com/2389/legisbot/internal/route"
	"github.com/2389/legisbot/internal/tui"
)

var tuiStart string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Abrir la interfaz interactiva",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiStart, "page", "/", "Página inicial (/chat, /history, /admin/stats, ...)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	start := route.Dashboard
	if r, ok := route.Parse(tuiStart); ok {
		start = r
	}

	return tui.Run(cmd.Context(), tui.Options{
		Session:   a.session,
		Backend:   a.client,
		Dashboard: admin.NewDashboard(a.client, a.cfg.Stats.CacheTTL, a.logger),
		Uploader:  admin.NewUploader(a.client, a.logger),
		Logger:    a.logger,
		Start:     start,
	})
}
